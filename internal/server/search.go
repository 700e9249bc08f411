package server

import (
	"net/http"

	"github.com/impala-radio/impala/internal/repository"
)

// handleHoldingsSearch serves GET /holdings/search. Any authenticated
// caller may search; results join each active holding with its holding
// group so clients get album metadata in one round trip.
func handleHoldingsSearch(store repository.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess == nil {
			writeError(w, http.StatusForbidden, msgForbidden)
			return
		}

		page, err := parsePagination(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, msgBadSyntax)
			return
		}

		query := r.URL.Query()
		filter := repository.HoldingSearchFilter{
			Any:         query.Get("any"),
			AlbumArtist: query.Get("album_artist"),
			AlbumTitle:  query.Get("album_title"),
			Label:       query.Get("label"),
		}

		recs, err := store.SearchHoldings(r.Context(), filter, page)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}
