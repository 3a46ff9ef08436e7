package api

import (
	"bytes"
	"embed"
	"healthcare-assistant/internal/domain/entity"
	"html/template"
	"strings"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = map[string]*template.Template{
	"home":   parsePage("home"),
	"about":  parsePage("about"),
	"spaces": parsePage("spaces"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.New(name).
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
}

type pageData struct {
	Title               string
	Active              string
	Models              []string
	Perspectives        []string
	SelectedModel       string
	SelectedPerspective string
	Query               string
	Response            *entity.QueryResponse
	Error               string
	Submitted           bool
}

func newPageData(title, active string) pageData {
	d := pageData{
		Title:               title,
		Active:              active,
		SelectedModel:       entity.ModelNEENMED.String(),
		SelectedPerspective: entity.PerspectiveGeneral.String(),
	}
	for _, m := range entity.ModelChoices {
		d.Models = append(d.Models, m.String())
	}
	for _, p := range entity.Perspectives {
		d.Perspectives = append(d.Perspectives, p.String())
	}
	return d
}

func render(c *fiber.Ctx, status int, page string, data pageData) error {
	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}

func (h *PromptHandler) HandleHome(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, "home", newPageData("Home", "home"))
}

// HandleHomeSubmit runs the form query; a blank query re-renders the form.
func (h *PromptHandler) HandleHomeSubmit(c *fiber.Ctx) error {
	data := newPageData("Home", "home")
	var req entity.QueryRequest
	if err := c.BodyParser(&req); err != nil {
		data.Error = "invalid form submission"
		return render(c, fiber.StatusBadRequest, "home", data)
	}
	if req.Model != "" {
		data.SelectedModel = req.Model
	}
	if req.Perspective != "" {
		data.SelectedPerspective = req.Perspective
	}
	data.Query = req.Query

	resp, err := h.generate(c.UserContext(), req, c.IP())
	if err != nil {
		data.Error = publicMessage(err)
		return render(c, statusFor(err), "home", data)
	}
	if resp != nil {
		resp.RequestID = requestID(c)
		data.Response = resp
	}
	return render(c, fiber.StatusOK, "home", data)
}

func (h *PromptHandler) HandleAbout(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, "about", newPageData("About", "about"))
}

func (h *PromptHandler) HandleSpaces(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, "spaces", newPageData("Spaces", "spaces"))
}

// HandleSpacesSubmit acknowledges the chosen perspective. Perspective-only
// generation is not offered yet, so no backend is called.
func (h *PromptHandler) HandleSpacesSubmit(c *fiber.Ctx) error {
	data := newPageData("Spaces", "spaces")
	var req entity.QueryRequest
	if err := c.BodyParser(&req); err != nil {
		data.Error = "invalid form submission"
		return render(c, fiber.StatusBadRequest, "spaces", data)
	}
	perspective, err := entity.ParsePerspective(req.Perspective)
	if err != nil {
		data.Error = err.Error()
		return render(c, fiber.StatusBadRequest, "spaces", data)
	}
	data.SelectedPerspective = perspective.String()
	data.Query = req.Query
	data.Submitted = !entity.IsBlank(req.Query)
	return render(c, fiber.StatusOK, "spaces", data)
}
