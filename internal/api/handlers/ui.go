package handlers

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

type indexData struct {
	Title          string
	DefaultMessage string
	Placeholder    string
}

func (h *HandlerSet) index(ctx *fiber.Ctx) error {
	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, indexData{
		Title:          h.title,
		DefaultMessage: h.batches.DefaultMessage(),
		Placeholder:    "+14163128929\n+14162326807",
	})
	if err != nil {
		return err
	}
	ctx.Type("html", "utf-8")
	return ctx.Send(buf.Bytes())
}
