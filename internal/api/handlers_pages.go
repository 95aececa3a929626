package api

import (
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"

	"github.com/lox/airwatch/internal/imagegen"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab")
	if !validTab(tab) {
		tab = TabCurrent
	}

	data := newIndexData(s.controller.Current(), tab, s.cities.Names())
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("api: template error: %v", err)
	}
}

// handleSelectForm is the no-JavaScript city picker: it selects and sends
// the browser back to the page, which refreshes until the reading lands.
func (s *Server) handleSelectForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.controller.Select(r.PostForm.Get("city")); err != nil {
		http.Error(w, err.Error(), selectStatus(err))
		return
	}

	tab := r.PostForm.Get("tab")
	if !validTab(tab) {
		tab = TabCurrent
	}
	http.Redirect(w, r, "/?tab="+url.QueryEscape(tab), http.StatusSeeOther)
}

// handleCard serves a PNG of the current city's AQI for sharing.
func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	state := s.controller.Current()
	if state.Reading == nil {
		http.Error(w, "No reading available yet", http.StatusServiceUnavailable)
		return
	}

	key := fmt.Sprintf("%s:%d", state.City, int(math.Floor(state.Reading.AQI)))
	data, ok := s.cardCache.Get(key)
	if !ok {
		var err error
		data, err = imagegen.GenerateCard(imagegen.CardData{City: state.City, AQI: state.Reading.AQI})
		if err != nil {
			log.Printf("api: card for %s: %v", state.City, err)
			http.Error(w, "Failed to render card", http.StatusInternalServerError)
			return
		}
		s.cardCache.Set(key, data)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Write(data)
}
