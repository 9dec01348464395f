// Package api serves read only views of the stored rooms, messages and memberships.
// It reads the repositories directly and never goes through the registries.
package api

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const defaultPageSize = 50

type UserView struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type RoomView struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Host         UserView   `json:"host"`
	Participants []UserView `json:"participants"`
	Scope        string     `json:"scope"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type MessageView struct {
	ID        uuid.UUID `json:"id"`
	Author    UserView  `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type MessageList struct {
	Messages []MessageView `json:"messages"`
}

type MembershipView struct {
	RoomID    string    `json:"roomId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

type MembershipList struct {
	Rooms []MembershipView `json:"rooms"`
}

type API struct {
	log   *slog.Logger
	repos repositories.Repositories
}

func NewAPI(log *slog.Logger, repos repositories.Repositories) *API {
	return &API{log: log, repos: repos}
}

func (a *API) Routes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/rooms/{roomID}", a.getRoom)
		r.Get("/rooms/{roomID}/messages", a.getMessages)
		r.Get("/users/{userID}/rooms", a.getUserRooms)
	})
}

func (a *API) getRoom(w http.ResponseWriter, r *http.Request) {
	roomID := domain.RoomID(chi.URLParam(r, "roomID"))
	room, err := a.repos.Rooms.LoadOneRoom(roomID)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	render.JSON(w, r, RoomView{
		ID:           string(room.ID),
		Title:        room.Title,
		Host:         toUserView(room.Host),
		Participants: lo.Map(room.Participants, func(u domain.User, _ int) UserView { return toUserView(u) }),
		Scope:        room.Scope,
		CreatedAt:    room.CreatedAt,
	})
}

func (a *API) getMessages(w http.ResponseWriter, r *http.Request) {
	roomID := domain.RoomID(chi.URLParam(r, "roomID"))
	page, size, ok := pagination(r)
	if !ok {
		_ = render.Render(w, r, ApiErrInvalidPage)
		return
	}
	exists, err := a.repos.Rooms.RoomExists(roomID)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	if !exists {
		_ = render.Render(w, r, ApiErrRoomNotFound)
		return
	}
	messages, err := a.repos.Messages.LoadMessagesByRoom(roomID, page, size)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	render.JSON(w, r, MessageList{Messages: lo.Map(messages, func(m domain.Message, _ int) MessageView {
		return MessageView{ID: m.ID, Author: toUserView(m.Author), Body: m.Body, CreatedAt: m.CreatedAt}
	})})
}

func (a *API) getUserRooms(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		_ = render.Render(w, r, ApiErrInvalidUserID)
		return
	}
	page, size, ok := pagination(r)
	if !ok {
		_ = render.Render(w, r, ApiErrInvalidPage)
		return
	}
	entries, err := a.repos.Memberships.LoadByUser(userID, page, size)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	render.JSON(w, r, MembershipList{Rooms: lo.Map(entries, func(m domain.RoomMembership, _ int) MembershipView {
		return MembershipView{RoomID: string(m.RoomID), Title: m.RoomTitle, CreatedAt: m.CreatedAt}
	})})
}

func (a *API) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if stderrors.Is(err, errors.ErrNotFound) {
		_ = render.Render(w, r, ApiErrRoomNotFound)
		return
	}
	a.log.Error("Unable to serve request", "path", r.URL.Path, "error", err)
	_ = render.Render(w, r, ApiErrUnexpected(err))
}

// pagination reads ?page=&size=, defaulting to the first page of 50.
func pagination(r *http.Request) (int, int, bool) {
	page, size := 1, defaultPageSize
	if raw := r.URL.Query().Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return 0, 0, false
		}
		page = v
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return 0, 0, false
		}
		size = v
	}
	return page, size, true
}

func toUserView(u domain.User) UserView {
	return UserView{ID: u.ID, Name: u.Name}
}
