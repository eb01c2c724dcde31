// Package web serves the chat page and its static assets.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"github.com/soyeahso/agentchat/internal/config"
	"github.com/soyeahso/agentchat/internal/logging"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Page variants.
const (
	VariantPrimary = "primary"
	VariantRemote  = "remote"
)

// Suggestion is a clickable prompt shown before the first message.
type Suggestion struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// PageConfig is everything the browser needs to run the chat. It is built
// once at startup and never changes.
type PageConfig struct {
	Variant     string        `json:"variant"`
	RuntimeURL  string        `json:"runtimeUrl"`
	Agent       string        `json:"agent"`
	Title       string        `json:"title"`
	Initial     string        `json:"initial"`
	InitialHTML template.HTML `json:"initialHtml"`
	Placeholder string        `json:"placeholder"`
	Background  string        `json:"background"`
	Suggestions []Suggestion  `json:"suggestions"`
}

// Shell renders the chat page variants.
type Shell struct {
	primary PageConfig
	remote  *PageConfig
	tmpl    *template.Template
	log     *logging.Logger
}

// New builds the page configs from cfg. The remote variant exists only when
// cfg.Runtime.RemoteBaseURL is set.
func New(cfg config.Config, log *logging.Logger) (*Shell, error) {
	initialHTML, err := RenderMarkdown(cfg.Chat.Initial)
	if err != nil {
		return nil, fmt.Errorf("rendering initial label: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(cfg.Chat.Suggestions))
	for _, s := range cfg.Chat.Suggestions {
		suggestions = append(suggestions, Suggestion{Title: s.Title, Message: s.Message})
	}

	base := PageConfig{
		Agent:       cfg.Runtime.Agent,
		Title:       cfg.Chat.Title,
		Initial:     cfg.Chat.Initial,
		InitialHTML: initialHTML,
		Placeholder: cfg.Chat.Placeholder,
		Background:  cfg.Chat.Background,
		Suggestions: suggestions,
	}

	s := &Shell{log: log.Sub("web")}

	s.primary = base
	s.primary.Variant = VariantPrimary
	s.primary.RuntimeURL = cfg.Runtime.Endpoint

	if cfg.Runtime.RemoteBaseURL != "" {
		remote := base
		remote.Suggestions = append([]Suggestion(nil), suggestions...)
		remote.Variant = VariantRemote
		remote.RuntimeURL = strings.TrimRight(cfg.Runtime.RemoteBaseURL, "/") + cfg.Runtime.Endpoint
		s.remote = &remote
	}

	s.tmpl, err = template.ParseFS(templatesFS, "templates/chat.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return s, nil
}

// Primary returns the config of the main page.
func (s *Shell) Primary() PageConfig { return s.primary }

// Remote returns the config of the alternate page, if one is configured.
func (s *Shell) Remote() (PageConfig, bool) {
	if s.remote == nil {
		return PageConfig{}, false
	}
	return *s.remote, true
}

// Routes mounts the page, its config endpoint and static assets on r.
func (s *Shell) Routes(r chi.Router) {
	r.Get("/", s.handlePage(VariantPrimary))
	r.Get("/remote", s.handlePage(VariantRemote))
	r.Get("/api/chat/config", s.handleConfig)

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
}

func (s *Shell) variant(name string) (PageConfig, bool) {
	switch name {
	case "", VariantPrimary:
		return s.primary, true
	case VariantRemote:
		return s.Remote()
	default:
		return PageConfig{}, false
	}
}

func (s *Shell) handlePage(variant string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pc, ok := s.variant(variant)
		if !ok {
			http.NotFound(w, r)
			return
		}

		var buf bytes.Buffer
		if err := s.tmpl.ExecuteTemplate(&buf, "chat.html", pc); err != nil {
			s.log.Error().Err(err).Str("variant", variant).Msg("page render failed")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		buf.WriteTo(w)
	}
}

func (s *Shell) handleConfig(w http.ResponseWriter, r *http.Request) {
	variant := r.URL.Query().Get("variant")
	pc, ok := s.variant(variant)
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "unknown variant",
			"variant": variant,
		})
		return
	}
	json.NewEncoder(w).Encode(pc)
}

var (
	md = goldmark.New(goldmark.WithExtensions(extension.GFM))
	// strips scripts and event handler attributes
	sanitizer = bluemonday.UGCPolicy()
)

// RenderMarkdown converts src to sanitized HTML.
func RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes())), nil
}
