package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	gcontext "github.com/stablelink/stablelink/context"
	"github.com/stablelink/stablelink/models"
)

const defaultCurrency = "USDC"

type productParams struct {
	DownloadLink string   `json:"download_link"`
	ImageURLs    []string `json:"image_urls"`
}

type linkParams struct {
	Name                string         `json:"name"`
	Description         string         `json:"description"`
	Slug                string         `json:"slug"`
	Amount              *float64       `json:"amount"`
	IsFlexibleAmount    bool           `json:"is_flexible_amount"`
	Currency            string         `json:"currency"`
	PaymentLimit        *int64         `json:"payment_limit"`
	ExpiresAt           *time.Time     `json:"expires_at"`
	RedirectURL         string         `json:"redirect_url"`
	EnableNotifications bool           `json:"enable_notifications"`
	Status              string         `json:"status"`
	Product             *productParams `json:"product"`
}

func (p *linkParams) validate() *HTTPError {
	if p.Name == "" {
		return badRequestError("Link name is required")
	}
	if p.IsFlexibleAmount {
		if p.Amount != nil && *p.Amount != 0 {
			return badRequestError("A flexible amount link cannot also have a fixed amount")
		}
	} else {
		if p.Amount == nil {
			return badRequestError("Either a fixed amount or the flexible amount flag is required")
		}
		if *p.Amount < 0 {
			return badRequestError("The amount must not be negative")
		}
	}
	if p.PaymentLimit != nil && *p.PaymentLimit < 0 {
		return badRequestError("The payment limit must not be negative")
	}
	if p.Status != "" && p.Status != models.StatusActive && p.Status != models.StatusInactive {
		return badRequestError("Status must be either '%s' or '%s'", models.StatusActive, models.StatusInactive)
	}
	return nil
}

func (p *linkParams) fixedAmount() float64 {
	if p.IsFlexibleAmount || p.Amount == nil {
		return 0
	}
	return *p.Amount
}

func (p *linkParams) currency() string {
	if p.Currency == "" {
		return defaultCurrency
	}
	return p.Currency
}

// LinkCreate creates a payment link, together with its digital product
// when one is attached.
func (a *API) LinkCreate(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	user, httpErr := a.requireProfile(ctx)
	if httpErr != nil {
		return httpErr
	}

	params := &linkParams{}
	if err := json.NewDecoder(r.Body).Decode(params); err != nil {
		return badRequestError("Could not read link params: %v", err)
	}

	if !slugRegexp.MatchString(params.Slug) {
		return badRequestError("A slug of lowercase letters, digits, '-' or '_' is required")
	}
	if httpErr := params.validate(); httpErr != nil {
		return httpErr
	}

	link := models.NewLink(user.ID, params.Name, composePath(user.Handle, params.Slug))
	link.Description = params.Description
	link.Amount = params.fixedAmount()
	link.IsFlexibleAmount = params.IsFlexibleAmount
	link.Currency = params.currency()
	link.PaymentLimit = params.PaymentLimit
	link.ExpiresAt = params.ExpiresAt
	link.RedirectURL = params.RedirectURL
	link.EnableNotifications = params.EnableNotifications
	if params.Status != "" {
		link.Status = params.Status
	}

	if params.Product != nil {
		if params.Product.DownloadLink == "" {
			return badRequestError("A product needs a download link")
		}
		link.AttachProduct(params.Product.DownloadLink, params.Product.ImageURLs)
	}

	if err := models.CreateLink(a.db, link); err != nil {
		if taken, ok := err.(models.PathTakenError); ok {
			return conflictError("The path %s is already taken", taken.Path)
		}
		return internalServerError("Error creating link").WithInternalError(err)
	}

	logEntrySetField(r, "link_id", link.ID)
	return sendJSON(w, http.StatusCreated, link)
}

// LinkPathAvailable reports whether the authenticated creator can still
// claim a slug.
func (a *API) LinkPathAvailable(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	user, httpErr := a.requireProfile(ctx)
	if httpErr != nil {
		return httpErr
	}

	slug := r.URL.Query().Get("slug")
	if !slugRegexp.MatchString(slug) {
		return badRequestError("A slug of lowercase letters, digits, '-' or '_' is required")
	}

	available, err := models.PathAvailable(a.db, user.ID, composePath(user.Handle, slug))
	if err != nil {
		return internalServerError("Error during database query").WithInternalError(err)
	}

	return sendJSON(w, http.StatusOK, map[string]bool{"available": available})
}

// LinkList is the owner's private dashboard view: every link regardless
// of status, newest first.
func (a *API) LinkList(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	userID := gcontext.GetUserID(ctx)

	query := a.db.Model(&models.Link{}).Where("user_id = ?", userID)
	offset, limit, err := paginate(w, r, query)
	if err != nil {
		return badRequestError("Bad Pagination Parameters: %v", err)
	}

	links := []*models.Link{}
	result := query.
		Preload("Product").
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&links)
	if result.Error != nil {
		return internalServerError("Error during database query").WithInternalError(result.Error)
	}

	return sendJSON(w, http.StatusOK, links)
}

// LinkView returns one of the owner's links.
func (a *API) LinkView(w http.ResponseWriter, r *http.Request) error {
	link, httpErr := a.ownedLink(r.Context())
	if httpErr != nil {
		return httpErr
	}
	return sendJSON(w, http.StatusOK, link)
}

// LinkUpdate replaces the mutable fields of a link. Counters are never
// part of the update set; only the checkout flow mutates them.
func (a *API) LinkUpdate(w http.ResponseWriter, r *http.Request) error {
	link, httpErr := a.ownedLink(r.Context())
	if httpErr != nil {
		return httpErr
	}

	params := &linkParams{}
	if err := json.NewDecoder(r.Body).Decode(params); err != nil {
		return badRequestError("Could not read link params: %v", err)
	}
	if httpErr := params.validate(); httpErr != nil {
		return httpErr
	}

	newStatus := link.Status
	if params.Status != "" {
		newStatus = params.Status
	}
	// an expired link can only stay active when the expiry is cleared
	// or pushed into the future in the same update
	if newStatus == models.StatusActive && params.ExpiresAt != nil && time.Now().After(*params.ExpiresAt) {
		return badRequestError("This link has expired. Clear or extend the expiry before keeping it active")
	}

	updates := map[string]interface{}{
		"name":                 params.Name,
		"description":          params.Description,
		"amount":               params.fixedAmount(),
		"is_flexible_amount":   params.IsFlexibleAmount,
		"currency":             params.currency(),
		"payment_limit":        params.PaymentLimit,
		"expires_at":           params.ExpiresAt,
		"redirect_url":         params.RedirectURL,
		"enable_notifications": params.EnableNotifications,
		"status":               newStatus,
	}
	if result := a.db.Model(link).Updates(updates); result.Error != nil {
		return internalServerError("Error updating link").WithInternalError(result.Error)
	}

	updated, err := models.LinkByID(a.db, link.ID)
	if err != nil {
		return internalServerError("Error during database query").WithInternalError(err)
	}
	return sendJSON(w, http.StatusOK, updated)
}

// LinkDelete removes a link. For product links the product row goes
// first so the referential order holds.
func (a *API) LinkDelete(w http.ResponseWriter, r *http.Request) error {
	link, httpErr := a.ownedLink(r.Context())
	if httpErr != nil {
		return httpErr
	}

	if err := models.DeleteLink(a.db, link); err != nil {
		return internalServerError("Error deleting link").WithInternalError(err)
	}

	return sendJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// SaleList returns the append-only sale log of one of the owner's
// links, newest first.
func (a *API) SaleList(w http.ResponseWriter, r *http.Request) error {
	link, httpErr := a.ownedLink(r.Context())
	if httpErr != nil {
		return httpErr
	}

	query := a.db.Model(&models.Sale{}).Where("link_id = ?", link.ID)
	offset, limit, err := paginate(w, r, query)
	if err != nil {
		return badRequestError("Bad Pagination Parameters: %v", err)
	}

	sales := []*models.Sale{}
	result := query.
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&sales)
	if result.Error != nil {
		return internalServerError("Error during database query").WithInternalError(result.Error)
	}

	return sendJSON(w, http.StatusOK, sales)
}

// ownedLink loads the link addressed by the URL and ensures it belongs
// to the authenticated creator. Links of other creators read as absent
// so link IDs never leak ownership information.
func (a *API) ownedLink(ctx context.Context) (*models.Link, *HTTPError) {
	link, err := models.LinkByID(a.db, gcontext.GetLinkID(ctx))
	if err != nil {
		if models.IsNotFoundError(err) {
			return nil, notFoundError("Link not found")
		}
		return nil, internalServerError("Error during database query").WithInternalError(err)
	}
	if link.UserID != gcontext.GetUserID(ctx) {
		return nil, notFoundError("Link not found")
	}
	return link, nil
}

// requireProfile loads the authenticated creator's profile. Link paths
// are composed from the profile handle, so one has to exist first.
func (a *API) requireProfile(ctx context.Context) (*models.User, *HTTPError) {
	user, err := models.UserByID(a.db, gcontext.GetUserID(ctx))
	if err != nil {
		if models.IsNotFoundError(err) {
			return nil, badRequestError("You need a profile with a handle before managing links")
		}
		return nil, internalServerError("Error during database query").WithInternalError(err)
	}
	return user, nil
}
