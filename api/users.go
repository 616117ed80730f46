package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/jinzhu/gorm"

	gcontext "github.com/stablelink/stablelink/context"
	"github.com/stablelink/stablelink/models"
)

type userParams struct {
	Handle    string `json:"handle"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// UserUpsert creates or updates the authenticated creator's profile.
// The profile is the single source of truth for the handle that every
// link path of this creator is composed from.
func (a *API) UserUpsert(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	tokenClaims := gcontext.GetClaims(ctx)

	params := &userParams{}
	if err := json.NewDecoder(r.Body).Decode(params); err != nil {
		return badRequestError("Could not read user params: %v", err)
	}

	if !handleRegexp.MatchString(params.Handle) {
		return badRequestError("A handle of 3-30 lowercase letters, digits, '-' or '_' is required")
	}

	available, err := models.HandleAvailable(a.db, params.Handle, tokenClaims.Subject)
	if err != nil {
		return internalServerError("Error during database query").WithInternalError(err)
	}
	if !available {
		return conflictError("The handle %s is already taken", params.Handle)
	}

	user, err := models.UserByID(a.db, tokenClaims.Subject)
	created := false
	if err != nil {
		if !models.IsNotFoundError(err) {
			return internalServerError("Error during database query").WithInternalError(err)
		}
		user = &models.User{ID: tokenClaims.Subject}
		created = true
	}

	user.Handle = params.Handle
	user.Email = tokenClaims.Email
	user.AvatarURL = params.AvatarURL
	user.Name = params.Name
	if user.Name == "" {
		user.Name = tokenClaims.MetaString("name")
	}

	var result *gorm.DB
	if created {
		result = a.db.Create(user)
	} else {
		result = a.db.Save(user)
	}
	if result.Error != nil {
		return internalServerError("Error saving user").WithInternalError(result.Error)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return sendJSON(w, status, user)
}

// UserHandleAvailable reports whether the authenticated caller can
// still claim a handle. Their own handle always reads as available so
// onboarding forms can re-submit it.
func (a *API) UserHandleAvailable(w http.ResponseWriter, r *http.Request) error {
	handle := r.URL.Query().Get("handle")
	if !handleRegexp.MatchString(handle) {
		return badRequestError("A handle of 3-30 lowercase letters, digits, '-' or '_' is required")
	}

	available, err := models.HandleAvailable(a.db, handle, gcontext.GetUserID(r.Context()))
	if err != nil {
		return internalServerError("Error during database query").WithInternalError(err)
	}

	return sendJSON(w, http.StatusOK, map[string]bool{"available": available})
}

// UserView resolves a creator by their public handle.
func (a *API) UserView(w http.ResponseWriter, r *http.Request) error {
	user, httpErr := a.userByHandleParam(r)
	if httpErr != nil {
		return httpErr
	}
	return sendJSON(w, http.StatusOK, user)
}

// ProfileLinkList is the public creator-profile view: only links whose
// administrative status is active, newest first.
func (a *API) ProfileLinkList(w http.ResponseWriter, r *http.Request) error {
	user, httpErr := a.userByHandleParam(r)
	if httpErr != nil {
		return httpErr
	}

	links := []*models.Link{}
	result := a.db.
		Where("user_id = ? AND status = ?", user.ID, models.StatusActive).
		Order("created_at desc").
		Preload("Product").
		Find(&links)
	if result.Error != nil {
		return internalServerError("Error during database query").WithInternalError(result.Error)
	}

	return sendJSON(w, http.StatusOK, links)
}

func (a *API) userByHandleParam(r *http.Request) (*models.User, *HTTPError) {
	handle := chi.URLParam(r, "handle")
	user, err := models.UserByHandle(a.db, handle)
	if err != nil {
		if models.IsNotFoundError(err) {
			return nil, notFoundError("User not found")
		}
		return nil, internalServerError("Error during database query").WithInternalError(err)
	}
	return user, nil
}
