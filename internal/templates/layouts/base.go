package layouts

import (
	"context"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/flash"
	"github.com/keyxmakerx/mailroom/internal/middleware"
	"github.com/keyxmakerx/mailroom/internal/templates/markup"
)

// htmxSrc is the pinned htmx build. The CSP allows this origin for scripts.
const htmxSrc = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"

// navItem is one entry in the top navigation.
type navItem struct {
	Label string
	Href  string
}

var nav = []navItem{
	{"Dashboard", "/"},
	{"Campaigns", "/campaigns"},
	{"New campaign", "/campaigns/new"},
	{"Templates", "/templates"},
	{"Contacts", "/contacts"},
	{"Send mail", "/send"},
	{"Activity", "/activity"},
}

// isActive reports whether href should be highlighted for path. The
// dashboard only matches exactly; "/campaigns" must not light up for
// "/campaigns/new".
func isActive(href, path string) bool {
	switch href {
	case "/":
		return path == "/"
	case "/campaigns":
		return path == href || (strings.HasPrefix(path, href+"/") && !strings.HasPrefix(path, "/campaigns/new"))
	}
	return path == href || strings.HasPrefix(path, href+"/")
}

// Base is the full HTML document wrapping every non-HTMX page.
func Base(title string, content templ.Component) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		h.Raw("<!DOCTYPE html>")
		h.Open("html", "lang", "en")
		h.Open("head")
		h.Void("meta", "charset", "utf-8")
		h.Void("meta", "name", "viewport", "content", "width=device-width, initial-scale=1")
		h.Void("meta", "name", "csrf-token", "content", GetCSRFToken(ctx))
		h.Elem("title", title+" · Mailroom")
		h.Void("link", "rel", "stylesheet", "href", "/static/css/app.css")
		h.Open("script", "src", htmxSrc, "defer", "defer")
		h.Close("script")
		h.Open("script", "src", "/static/js/app.js", "defer", "defer")
		h.Close("script")
		h.Close("head")

		h.Open("body", "hx-boost", "true")
		topbar(ctx, h)
		h.Open("main", "id", "main", "class", "container")
		h.Render(ctx, content)
		h.Close("main")
		h.Render(ctx, Toasts(GetNotices(ctx), false))
		h.Close("body")
		h.Close("html")
	})
}

func topbar(ctx context.Context, h *markup.W) {
	h.Open("header", "class", "topbar")
	h.Elem("a", "Mailroom", "href", "/", "class", "brand")
	if IsAuthenticated(ctx) {
		path := GetActivePath(ctx)
		h.Open("nav")
		for _, item := range nav {
			h.Elem("a", item.Label, "href", item.Href, "class", markup.If(isActive(item.Href, path), "active"))
		}
		h.Close("nav")

		h.Open("form", "method", "post", "action", "/logout", "class", "logout")
		h.Void("input", "type", "hidden", "name", "csrf_token", "value", GetCSRFToken(ctx))
		h.Elem("span", OperatorName(ctx), "class", "operator", "title", OperatorEmail(ctx))
		h.Elem("button", "Sign out", "type", "submit", "class", "btn btn-link")
		h.Close("form")
	}
	h.Close("header")
}

// Toasts renders the notice stack. With oob set it is swapped into the
// existing #toasts container of an HTMX response.
func Toasts(notices []flash.Notice, oob bool) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		if oob && len(notices) == 0 {
			return
		}
		attrs := []string{"id", "toasts", "class", "toasts", "aria-live", "polite"}
		if oob {
			attrs = append(attrs, "hx-swap-oob", "beforeend")
		}
		h.Open("div", attrs...)
		for _, n := range notices {
			h.Elem("div", n.Message, "class", "toast toast-"+string(n.Kind), "role", "status")
		}
		h.Close("div")
	})
}

// Fragment is an HTMX partial: the content followed by any notices as an
// out-of-band swap.
func Fragment(content templ.Component) templ.Component {
	return markup.Component(func(ctx context.Context, h *markup.W) {
		h.Render(ctx, content)
		h.Render(ctx, Toasts(GetNotices(ctx), true))
	})
}

// Respond renders content as a full page, or as a fragment for HTMX
// requests.
func Respond(c echo.Context, code int, title string, content templ.Component) error {
	ctx := SetNotices(c.Request().Context(), Notices(c))
	c.SetRequest(c.Request().WithContext(ctx))
	if middleware.IsHTMX(c) {
		return middleware.Render(c, code, Fragment(content))
	}
	return middleware.Render(c, code, Base(title, content))
}
