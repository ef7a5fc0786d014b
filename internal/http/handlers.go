package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/caioevelyn/giftregistry/internal/config"
	"github.com/caioevelyn/giftregistry/internal/domain"
	"github.com/caioevelyn/giftregistry/internal/idempotency"
	"github.com/caioevelyn/giftregistry/internal/registry"
	"github.com/caioevelyn/giftregistry/internal/session"
)

type Handlers struct {
	cfg          *config.Config
	guests       *registry.Guests
	catalog      *registry.Catalog
	ledger       *registry.Ledger
	orchestrator *registry.Orchestrator
	sessions     *session.Manager
	idemp        *idempotency.Idempotency
}

func NewHandlers(cfg *config.Config, guests *registry.Guests, catalog *registry.Catalog, ledger *registry.Ledger, orchestrator *registry.Orchestrator, sessions *session.Manager, idemp *idempotency.Idempotency) *Handlers {
	return &Handlers{
		cfg:          cfg,
		guests:       guests,
		catalog:      catalog,
		ledger:       ledger,
		orchestrator: orchestrator,
		sessions:     sessions,
		idemp:        idemp,
	}
}

// Identify creates the guest record and opens a session. Name and phone are
// collected once here; there is no edit path afterwards.
func (h *Handlers) Identify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	guest, err := h.guests.Identify(r.Context(), req.Name, req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.sessions.Open(guest.ID, guest.Name, guest.Phone)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"guest_id": guest.ID,
		"state":    sess.CurrentState().String(),
	})
}

// Advance acknowledges the informational step.
func (h *Handlers) Advance(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Advance(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"state": sess.CurrentState().String()})
}

// SelectItem records a gift choice in session state only; nothing is
// written to the ledger until confirm.
func (h *Handlers) SelectItem(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		ItemID uuid.UUID `json:"item_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	item, err := h.catalog.Get(r.Context(), req.ItemID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.SelectItem(*item); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"state": sess.CurrentState().String()})
}

func (h *Handlers) DeselectItem(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess.DeselectItem()
	writeJSON(w, http.StatusOK, map[string]interface{}{"state": sess.CurrentState().String()})
}

func (h *Handlers) SelectPledge(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidAmount)
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.SelectPledge(amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"state": sess.CurrentState().String()})
}

func (h *Handlers) DeselectPledge(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess.DeselectPledge()
	writeJSON(w, http.StatusOK, map[string]interface{}{"state": sess.CurrentState().String()})
}

// Confirm finalizes the RSVP. The body may carry the selection explicitly;
// when it does not, the live session's selection is used. Retries replay
// through the Idempotency-Key cache and are rejected by the confirmed_at
// guard either way.
func (h *Handlers) Confirm(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	if existing, err := h.idemp.Get(r.Context(), key); err == nil && existing != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(existing.Status)
		w.Write(existing.Result)
		return
	}

	guestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	var req struct {
		ItemID       *uuid.UUID `json:"item_id"`
		PledgeAmount *string    `json:"pledge_amount"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, domain.ErrInvalidInput)
			return
		}
	}

	sel := domain.Selection{ItemID: req.ItemID}
	if req.PledgeAmount != nil {
		amount, err := domain.ParseAmount(*req.PledgeAmount)
		if err != nil {
			writeError(w, err)
			return
		}
		sel.PledgeAmount = &amount
	}
	if sel.Empty() {
		if sess, sErr := h.sessions.Get(guestID); sErr == nil {
			sel = sess.CurrentSelection()
		}
	}

	receipt, err := h.orchestrator.Confirm(r.Context(), guestID, sel)
	if err != nil {
		writeError(w, err)
		return
	}

	if sess, sErr := h.sessions.Get(guestID); sErr == nil && sess.CurrentState() == session.StateSelected {
		sess.MarkConfirmed()
	}

	body := map[string]interface{}{"guest": guestJSON(receipt.Guest)}
	if receipt.Item != nil {
		body["item"] = itemJSON(*receipt.Item)
	}
	if receipt.Pledge != nil {
		body["pledge"] = pledgeJSON(*receipt.Pledge)
	}
	data, _ := json.Marshal(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)

	h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusOK, Result: data})
}

// AttachMessage adds the single post-confirmation note.
func (h *Handlers) AttachMessage(w http.ResponseWriter, r *http.Request) {
	guestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	if err := h.orchestrator.AttachMessage(r.Context(), guestID, req.Message); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		out = append(out, itemJSON(item))
	}
	writeJSON(w, http.StatusOK, out)
}

// RegistryInfo serves display configuration so the UI collaborator does not
// hardcode the contribution key.
func (h *Handlers) RegistryInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"contribution_key": h.cfg.ContributionKey,
	})
}

func (h *Handlers) CreateItem(w http.ResponseWriter, r *http.Request) {
	in, err := decodeCatalogInput(r)
	if err != nil {
		writeError(w, err)
		return
	}
	item, err := h.catalog.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemJSON(*item))
}

func (h *Handlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	in, err := decodeCatalogInput(r)
	if err != nil {
		writeError(w, err)
		return
	}
	item, err := h.catalog.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemJSON(*item))
}

func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListGuests(w http.ResponseWriter, r *http.Request) {
	guests, err := h.guests.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]interface{}, 0, len(guests))
	for _, g := range guests {
		out = append(out, guestJSON(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) ListPledges(w http.ResponseWriter, r *http.Request) {
	pledges, err := h.ledger.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]interface{}, 0, len(pledges))
	for _, p := range pledges {
		out = append(out, pledgeJSON(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// Summary fans out the dashboard counts concurrently.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	var (
		guestsTotal, guestsConfirmed int
		agg                          domain.PledgeAggregate
		items                        []domain.CatalogItem
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		guestsTotal, guestsConfirmed, err = h.guests.Counts(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		agg, err = h.ledger.Aggregate(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = h.catalog.List(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, err)
		return
	}

	reserved := 0
	for _, item := range items {
		if item.Reserved {
			reserved++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"guests_total":     guestsTotal,
		"guests_confirmed": guestsConfirmed,
		"items_total":      len(items),
		"items_reserved":   reserved,
		"pledge_count":     agg.Count,
		"pledge_sum":       agg.Sum.String(),
	})
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

func (h *Handlers) session(r *http.Request) (*session.Session, error) {
	guestID, err := uuid.Parse(chi.URLParam(r, "guestID"))
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	return h.sessions.Get(guestID)
}

func decodeCatalogInput(r *http.Request) (registry.CatalogInput, error) {
	var req struct {
		Name          string `json:"name"`
		Description   string `json:"description"`
		Image         string `json:"image"`
		ExternalLink  string `json:"external_link"`
		Category      string `json:"category"`
		AllowMultiple bool   `json:"allow_multiple"`
		MaxQuantity   int    `json:"max_quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return registry.CatalogInput{}, domain.ErrInvalidInput
	}
	return registry.CatalogInput{
		Name:          req.Name,
		Description:   req.Description,
		Image:         req.Image,
		ExternalLink:  req.ExternalLink,
		Category:      req.Category,
		AllowMultiple: req.AllowMultiple,
		MaxQuantity:   req.MaxQuantity,
	}, nil
}

func itemJSON(item domain.CatalogItem) map[string]interface{} {
	out := map[string]interface{}{
		"id":             item.ID,
		"name":           item.Name,
		"description":    item.Description,
		"image":          item.Image,
		"external_link":  item.ExternalLink,
		"category":       string(item.Category),
		"allow_multiple": item.AllowMultiple,
		"max_quantity":   item.MaxQuantity,
		"purchase_count": item.PurchaseCount,
		"reserved":       item.Reserved,
	}
	if item.ReservedBy != "" {
		out["reserved_by"] = item.ReservedBy
	}
	return out
}

func guestJSON(g domain.Guest) map[string]interface{} {
	out := map[string]interface{}{
		"id":         g.ID,
		"name":       g.Name,
		"phone":      g.Phone,
		"created_at": g.Timestamp.Format(time.RFC3339),
	}
	if g.ConfirmedAt != nil {
		out["confirmed_at"] = g.ConfirmedAt.Format(time.RFC3339)
	}
	if g.GiftID != nil {
		out["gift_id"] = g.GiftID
		out["gift_name"] = g.GiftName
	}
	if g.PledgeAmount != nil {
		out["pledge_amount"] = g.PledgeAmount.String()
		out["pledge_contribution_id"] = g.PledgeContributionID
	}
	if g.Message != "" {
		out["message"] = g.Message
	}
	return out
}

func pledgeJSON(p domain.PledgeContribution) map[string]interface{} {
	return map[string]interface{}{
		"id":          p.ID,
		"guest_id":    p.GuestID,
		"guest_name":  p.GuestName,
		"guest_phone": p.GuestPhone,
		"amount":      p.Amount.String(),
		"created_at":  p.Timestamp.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors onto status codes with reasons a guest can
// act on. Internal causes stay in the logs.
func writeError(w http.ResponseWriter, err error) {
	var ce *registry.ConfirmError
	step := ""
	if errors.As(err, &ce) {
		step = string(ce.Step)
	}

	status := http.StatusInternalServerError
	msg := "something went wrong, please try again"
	switch {
	case errors.Is(err, domain.ErrNoSelection):
		status = http.StatusUnprocessableEntity
		msg = "pick a gift or a contribution before confirming"
	case errors.Is(err, domain.ErrExhausted):
		status = http.StatusConflict
		msg = "this gift was just taken, please pick another"
	case errors.Is(err, domain.ErrAlreadyConfirmed):
		status = http.StatusConflict
		msg = "your attendance is already confirmed"
	case errors.Is(err, domain.ErrMessageAlreadySet):
		status = http.StatusConflict
		msg = "a message was already sent"
	case errors.Is(err, domain.ErrInvalidAmount):
		status = http.StatusBadRequest
		msg = "enter a contribution amount greater than zero"
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
		msg = "check the submitted fields and try again"
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		msg = "not found"
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, domain.ErrSerializationFailure):
		status = http.StatusServiceUnavailable
		msg = "temporarily unavailable, please retry"
	}

	body := map[string]interface{}{"error": msg}
	if step != "" {
		body["failed_step"] = step
	}
	writeJSON(w, status, body)
}
