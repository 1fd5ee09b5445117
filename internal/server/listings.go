package server

import (
	"net/http"
	"strconv"
	"strings"

	"farmconnect/internal/app"
	"farmconnect/pkg/domain"
)

func (s *Server) handleProduce(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		listings, err := s.app.ListProduce(r.Context())
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": listings, "count": len(listings)})
	case http.MethodPost:
		in, upload, ok := s.produceForm(w, r, true)
		if !ok {
			return
		}
		listing, err := s.app.CreateProduceListing(r.Context(), user, in, upload)
		if err != nil {
			s.audit(r, "api.produce.create", "fail", "reason", err.Error())
			writeAppError(w, err)
			return
		}
		s.audit(r, "api.produce.create", "success", "user_id", user.ID, "listing_id", listing.ID)
		writeJSON(w, http.StatusCreated, listing)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleProduceByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/api/produce/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		listing, err := s.app.GetProduce(r.Context(), id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, listing)
	case http.MethodPut:
		in, upload, ok := s.produceForm(w, r, false)
		if !ok {
			return
		}
		listing, err := s.app.UpdateProduceListing(r.Context(), user, id, in, upload)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, listing)
	case http.MethodDelete:
		if err := s.app.DeleteProduceListing(r.Context(), user, id); err != nil {
			writeAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleMarketItems(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		category := domain.MarketCategory(strings.TrimSpace(r.URL.Query().Get("category")))
		items, err := s.app.ListMarketItems(r.Context(), category)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
	case http.MethodPost:
		in, upload, ok := s.marketItemForm(w, r, true)
		if !ok {
			return
		}
		item, err := s.app.CreateMarketItem(r.Context(), user, in, upload)
		if err != nil {
			s.audit(r, "api.market_item.create", "fail", "reason", err.Error())
			writeAppError(w, err)
			return
		}
		s.audit(r, "api.market_item.create", "success", "user_id", user.ID, "item_id", item.ID)
		writeJSON(w, http.StatusCreated, item)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleMarketItemByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/api/market-items/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		item, err := s.app.GetMarketItem(r.Context(), id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodPut:
		in, upload, ok := s.marketItemForm(w, r, false)
		if !ok {
			return
		}
		item, err := s.app.UpdateMarketItem(r.Context(), user, id, in, upload)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		if err := s.app.DeleteMarketItem(r.Context(), user, id); err != nil {
			writeAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

// produceForm parses the multipart body of a produce write. The image part
// is required on create and optional on update.
func (s *Server) produceForm(w http.ResponseWriter, r *http.Request, imageRequired bool) (app.ProduceListingInput, *app.AssetUpload, bool) {
	if !s.parseUploadForm(w, r) {
		return app.ProduceListingInput{}, nil, false
	}
	price, ok := parsePrice(w, r.FormValue("price"))
	if !ok {
		return app.ProduceListingInput{}, nil, false
	}
	in := app.ProduceListingInput{
		ProduceName: r.FormValue("produceName"),
		Description: r.FormValue("description"),
		Price:       price,
		Quantity:    r.FormValue("quantity"),
	}
	upload, ok := s.formImage(w, r, imageRequired)
	if !ok {
		return app.ProduceListingInput{}, nil, false
	}
	return in, upload, true
}

func (s *Server) marketItemForm(w http.ResponseWriter, r *http.Request, imageRequired bool) (app.MarketItemInput, *app.AssetUpload, bool) {
	if !s.parseUploadForm(w, r) {
		return app.MarketItemInput{}, nil, false
	}
	price, ok := parsePrice(w, r.FormValue("price"))
	if !ok {
		return app.MarketItemInput{}, nil, false
	}
	in := app.MarketItemInput{
		ItemName:    r.FormValue("itemName"),
		Description: r.FormValue("description"),
		Category:    domain.MarketCategory(strings.TrimSpace(r.FormValue("category"))),
		Condition:   domain.ItemCondition(strings.TrimSpace(r.FormValue("condition"))),
		Price:       price,
	}
	upload, ok := s.formImage(w, r, imageRequired)
	if !ok {
		return app.MarketItemInput{}, nil, false
	}
	return in, upload, true
}

func (s *Server) parseUploadForm(w http.ResponseWriter, r *http.Request) bool {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return false
	}
	return true
}

// formImage pulls the image part out of a parsed multipart form. The part is
// released with the rest of the form when the request finishes.
func (s *Server) formImage(w http.ResponseWriter, r *http.Request, required bool) (*app.AssetUpload, bool) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if required {
			writeError(w, http.StatusBadRequest, "image is required (field: image)")
			return nil, false
		}
		return nil, true
	}
	if !s.isExtensionAllowed(header.Filename) {
		file.Close()
		writeError(w, http.StatusBadRequest, "unsupported image type")
		return nil, false
	}
	return &app.AssetUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	}, true
}

func parsePrice(w http.ResponseWriter, raw string) (float64, bool) {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "price must be a number")
		return 0, false
	}
	return price, true
}
