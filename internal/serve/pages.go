package serve

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/regtime/regtime/internal/gate"
	"github.com/regtime/regtime/internal/identity"
)

type sitePage struct {
	Path    string
	Title   string
	Heading string
}

var sitePages = []sitePage{
	{Path: "/", Title: "Regtime", Heading: "Zoning and compliance, on time"},
	{Path: "/about", Title: "About", Heading: "About Regtime"},
	{Path: "/services", Title: "Services", Heading: "Services"},
	{Path: "/contact", Title: "Contact", Heading: "Contact"},
	{Path: "/privacy", Title: "Privacy Policy", Heading: "Privacy Policy"},
}

type dashboardPage struct {
	Slug  string
	Title string
}

var dashboardPages = []dashboardPage{
	{Slug: "", Title: "Overview"},
	{Slug: "projects", Title: "Projects"},
	{Slug: "property-search", Title: "Property Search"},
	{Slug: "far-calculator", Title: "FAR Calculator"},
	{Slug: "project-management", Title: "Project Management"},
	{Slug: "import-export", Title: "Import / Export"},
	{Slug: "help", Title: "Help"},
}

type navLink struct {
	Href  string
	Title string
}

type pageData struct {
	Title   string
	Heading string
	Notice  string
	User    string
	Nav     []navLink
	// Login form.
	LoginAction    string
	RedirectedFrom string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
<header>
{{- range .Nav}}
<a href="{{.Href}}">{{.Title}}</a>
{{- end}}
{{- if .User}}
<span class="user">{{.User}}</span>
{{- end}}
</header>
<main>
<h1>{{.Heading}}</h1>
{{- if .Notice}}
<p class="notice" role="alert">{{.Notice}}</p>
{{- end}}
{{- if .LoginAction}}
<form method="post" action="{{.LoginAction}}">
<input type="hidden" name="redirectedFrom" value="{{.RedirectedFrom}}">
<label>Email <input type="email" name="email" required></label>
<label>Password <input type="password" name="password" required></label>
<button type="submit">Sign in</button>
</form>
{{- end}}
</main>
</body>
</html>
`))

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("render page", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func siteNav() []navLink {
	nav := make([]navLink, 0, len(sitePages))
	for _, p := range sitePages {
		nav = append(nav, navLink{Href: p.Path, Title: p.Title})
	}
	return nav
}

func (s *Server) handleSitePage(p sitePage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderPage(w, r, http.StatusOK, pageData{Title: p.Title, Heading: p.Heading, Nav: siteNav()})
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := pageData{
		Title:          "Sign in",
		Heading:        "Sign in to Regtime",
		Nav:            siteNav(),
		LoginAction:    r.URL.Path,
		RedirectedFrom: q.Get("redirectedFrom"),
	}
	if q.Get("error") == gate.ErrorCodeConfig {
		data.Notice = noticeUnavailable
	}
	s.renderPage(w, r, http.StatusOK, data)
}

const (
	noticeUnavailable = "Sign-in is temporarily unavailable. Please try again later."
	noticeBadLogin    = "Invalid credentials"
	defaultEmailHost  = "regtime.com"
)

// handleLoginSubmit signs the user in and sets the session cookie. Bare
// usernames are taken as addresses at the company domain.
func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	if email != "" && !strings.Contains(email, "@") {
		email += "@" + defaultEmailHost
	}
	password := r.PostForm.Get("password")
	target := safeRedirect(r.PostForm.Get("redirectedFrom"), s.gate.Prefix())

	fail := func(status int, notice string) {
		s.renderPage(w, r, status, pageData{
			Title:          "Sign in",
			Heading:        "Sign in to Regtime",
			Nav:            siteNav(),
			Notice:         notice,
			LoginAction:    r.URL.Path,
			RedirectedFrom: target,
		})
	}

	auth, ok := s.identity.(identity.Authenticator)
	if !ok {
		s.logger.Error("sign-in unavailable: identity provider not configured")
		fail(http.StatusServiceUnavailable, noticeUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.providerTimeout)
	defer cancel()
	sess, err := auth.SignIn(ctx, email, password)
	switch {
	case err == nil:
	case errors.Is(err, identity.ErrBadCredentials):
		s.logger.Info("sign-in rejected", "email", email)
		fail(http.StatusUnauthorized, noticeBadLogin)
		return
	default:
		s.logger.Warn("sign-in failed", "error", err, "timeout", identity.IsTimeout(err))
		fail(http.StatusServiceUnavailable, noticeUnavailable)
		return
	}

	cookie := &http.Cookie{
		Name:     s.gate.CookieNames()[0],
		Value:    sess.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	}
	if sess.ExpiresIn > 0 {
		cookie.MaxAge = int(sess.ExpiresIn.Seconds())
	}
	http.SetCookie(w, cookie)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleLogout expires every session cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	for _, name := range s.gate.CookieNames() {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   isHTTPS(r),
			SameSite: http.SameSiteLaxMode,
		})
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// safeRedirect keeps redirects on this site.
func safeRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "page")
	var page *dashboardPage
	for i := range dashboardPages {
		if dashboardPages[i].Slug == slug {
			page = &dashboardPages[i]
			break
		}
	}
	if page == nil {
		s.handleNotFound(w, r)
		return
	}

	prefix := s.gate.Prefix()
	nav := make([]navLink, 0, len(dashboardPages))
	for _, p := range dashboardPages {
		href := prefix
		if p.Slug != "" {
			href += "/" + p.Slug
		}
		nav = append(nav, navLink{Href: href, Title: p.Title})
	}

	data := pageData{Title: page.Title + " | Regtime", Heading: page.Title, Nav: nav}
	if id, ok := gate.IdentityFromContext(r.Context()); ok {
		data.User = id.Email
		if data.User == "" {
			data.User = id.ID
		}
	} else if hint := r.Header.Get(gate.HeaderUserHint); hint != "" {
		data.User = hint
	}
	w.Header().Set("Cache-Control", "no-store")
	s.renderPage(w, r, http.StatusOK, data)
}
