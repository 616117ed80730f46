package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/sirupsen/logrus"

	gcontext "github.com/stablelink/stablelink/context"
	"github.com/stablelink/stablelink/models"
)

type checkoutPayload struct {
	Link    *models.Link   `json:"link"`
	Creator creatorProfile `json:"creator"`
}

type creatorProfile struct {
	Handle    string `json:"handle"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type checkoutParams struct {
	Amount     *float64 `json:"amount"`
	BuyerEmail string   `json:"buyer_email"`
	BuyerName  string   `json:"buyer_name"`
}

type saleResponse struct {
	Success         bool         `json:"success"`
	Sale            *models.Sale `json:"sale"`
	DownloadURL     string       `json:"download_url,omitempty"`
	RedirectURL     string       `json:"redirect_url,omitempty"`
	RedirectAfterMs int          `json:"redirect_after_ms,omitempty"`
}

// CheckoutView resolves a link by creator handle and slug, records the
// visit, and returns the canonical checkout payload when the link is
// eligible. The visit is recorded regardless of eligibility: a click on
// an expired link is still traffic telemetry.
func (a *API) CheckoutView(w http.ResponseWriter, r *http.Request) error {
	log := getLogEntry(r)

	user, link, httpErr := a.resolveCheckout(r)
	if httpErr != nil {
		return httpErr
	}

	if err := models.IncrementClicks(a.db, link.ID); err != nil {
		// telemetry only, not worth failing the page for
		log.WithError(err).Warn("Failed to record click")
	}

	status := link.EffectiveStatus(time.Now())
	if status != models.StatusActive {
		return unprocessableEntityError(checkoutUnavailableMessage(status))
	}

	if link.Type == models.LinkTypeProduct && link.Product == nil {
		// data-integrity problem, not a user error
		return internalServerError("This link is currently unavailable").
			WithInternalMessage("product link %s has no product row", link.ID)
	}

	return sendJSON(w, http.StatusOK, checkoutPayload{
		Link: link,
		Creator: creatorProfile{
			Handle:    user.Handle,
			Name:      user.Name,
			AvatarURL: user.AvatarURL,
		},
	})
}

// CheckoutPay records a sale against the link. Eligibility is enforced
// again inside the guarded counter update, so a link crossing its
// expiry or payment limit between page load and submit is refused here.
func (a *API) CheckoutPay(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	config := gcontext.GetConfig(ctx)
	log := getLogEntry(r)

	user, link, httpErr := a.resolveCheckout(r)
	if httpErr != nil {
		return httpErr
	}

	params := &checkoutParams{}
	if err := json.NewDecoder(r.Body).Decode(params); err != nil {
		return badRequestError("Could not read checkout params: %v", err)
	}

	var amount float64
	if link.IsFlexibleAmount {
		if params.Amount == nil || *params.Amount <= 0 {
			return badRequestError("A positive amount is required for this link")
		}
		amount = *params.Amount
	} else {
		amount = link.Amount
	}

	sale, err := models.RecordSale(a.db, link, amount, params.BuyerEmail, params.BuyerName, time.Now())
	if err != nil {
		switch e := err.(type) {
		case models.InvalidAmountError:
			return badRequestError("A positive amount is required for this link")
		case models.ModelNotFoundError:
			return notFoundError("Link not found")
		case models.LinkNotEligibleError:
			return unprocessableEntityError(checkoutUnavailableMessage(e.Status))
		default:
			return internalServerError("Error recording sale").WithInternalError(err)
		}
	}

	logEntrySetField(r, "sale_id", sale.ID)

	response := &saleResponse{Success: true, Sale: sale}

	if link.Type == models.LinkTypeProduct && link.Product != nil {
		signed, err := gcontext.GetAssetStore(ctx).SignURL(link.Product.DownloadLink)
		if err != nil {
			// the sale is already recorded, deliver the unsigned
			// locator rather than losing the purchase
			log.WithError(err).Error("Failed to sign download URL")
			signed = link.Product.DownloadLink
		}
		response.DownloadURL = signed
	}

	if link.RedirectURL != "" {
		response.RedirectURL = link.RedirectURL
		response.RedirectAfterMs = config.Checkout.RedirectDelay
	}

	if link.EnableNotifications {
		notifier := gcontext.GetMailer(ctx)
		go func() {
			if err := notifier.SaleNotificationMail(user, link, sale); err != nil {
				logrus.WithError(err).WithField("link_id", link.ID).Error("Failed to send sale notification")
			}
		}()
	}

	return sendJSON(w, http.StatusOK, response)
}

func (a *API) resolveCheckout(r *http.Request) (*models.User, *models.Link, *HTTPError) {
	handle := chi.URLParam(r, "handle")
	slug := chi.URLParam(r, "slug")

	user, err := models.UserByHandle(a.db, handle)
	if err != nil {
		if models.IsNotFoundError(err) {
			return nil, nil, notFoundError("This link is not available")
		}
		return nil, nil, internalServerError("Error during database query").WithInternalError(err)
	}

	link, err := models.LinkByPath(a.db, user.ID, composePath(handle, slug))
	if err != nil {
		if models.IsNotFoundError(err) {
			return nil, nil, notFoundError("This link is not available")
		}
		return nil, nil, internalServerError("Error during database query").WithInternalError(err)
	}

	return user, link, nil
}

func checkoutUnavailableMessage(status string) string {
	switch status {
	case models.StatusExpired:
		return "This link has expired"
	case models.StatusUsed:
		return "This link has reached its payment limit"
	case models.StatusInactive:
		return "This link is not active"
	default:
		return "This link is currently unavailable"
	}
}
