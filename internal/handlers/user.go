package handlers

import (
	"TrackingCar/internal/config"
	"TrackingCar/internal/middleware"
	"TrackingCar/internal/model"
	"TrackingCar/internal/response"
	"TrackingCar/internal/service"
	"TrackingCar/internal/storage"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler — регистрация, вход и учётные записи.
type UserHandler struct {
	UserService  *service.UserService
	TokenService *service.TokenService
	Logger       *zap.SugaredLogger
	Config       *config.Config
}

func NewUserHandler(users *service.UserService, tokens *service.TokenService, logger *zap.SugaredLogger, cfg *config.Config) *UserHandler {
	return &UserHandler{UserService: users, TokenService: tokens, Logger: logger, Config: cfg}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type userRequest struct {
	Username string         `json:"username"`
	Password string         `json:"password"`
	FullName string         `json:"full_name"`
	Phone    *string        `json:"phone"`
	Role     model.UserRole `json:"role"`
	Active   *bool          `json:"active"`
}

type statusRequest struct {
	Active *bool `json:"active"`
}

// UserView — пользователь в ответе API, со ссылкой на изображение.
type UserView struct {
	model.User
	ImageURL *string `json:"image_url,omitempty"`
}

func (h *UserHandler) view(u *model.User) UserView {
	v := UserView{User: *u}
	if u.Image != nil {
		link := h.Config.ServerURL + "/api/files/" + storage.FolderUsers + "/" + url.PathEscape(*u.Image)
		v.ImageURL = &link
	}
	return v
}

func (h *UserHandler) views(users []model.User) []UserView {
	out := make([]UserView, 0, len(users))
	for i := range users {
		out = append(out, h.view(&users[i]))
	}
	return out
}

// readUserForm читает поля пользователя из JSON или multipart (с файлом image).
func (h *UserHandler) readUserForm(w http.ResponseWriter, r *http.Request, files *openedFiles) (userRequest, *service.FileUpload, error) {
	var req userRequest
	if !isMultipart(r) {
		err := decodeJSON(r, &req)
		return req, nil, err
	}
	if err := parseMultipart(w, r, h.Config.MaxUploadMB); err != nil {
		return req, nil, err
	}
	req.Username = r.FormValue("username")
	req.Password = r.FormValue("password")
	req.FullName = r.FormValue("full_name")
	req.Role = model.UserRole(r.FormValue("role"))
	if v, ok := r.MultipartForm.Value["phone"]; ok && len(v) > 0 {
		phone := v[0]
		req.Phone = &phone
	}
	if v := r.FormValue("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return req, nil, err
		}
		req.Active = &active
	}
	fh := formFile(r.MultipartForm, "image")
	if fh == nil {
		return req, nil, nil
	}
	img, err := files.open(fh)
	if err != nil {
		return req, nil, err
	}
	return req, &img, nil
}

// Register регистрация пользователя. Роль и активность задаёт только администратор.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var files openedFiles
	defer files.Close()

	req, img, err := h.readUserForm(w, r, &files)
	if err != nil {
		h.Logger.Warnw("Register: invalid request", "error", err)
		badRequest(w, err.Error())
		return
	}

	in := service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
		Image:    img,
	}
	if caller, ok := middleware.GetIdentity(r.Context()); ok && caller.Role == model.RoleAdmin {
		in.Role = req.Role
		in.Active = req.Active
	}

	u, err := h.UserService.Register(r.Context(), in)
	if err != nil {
		writeError(w, h.Logger, "Register", err)
		return
	}
	response.OK(http.StatusCreated, h.view(u)).Write(w)
}

// Login вход по логину и паролю
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		badRequest(w, "username and password are required")
		return
	}
	pair, err := h.TokenService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.Logger, "Login", err)
		return
	}
	response.OK(http.StatusOK, pair).Write(w)
}

// Refresh ротация пары токенов
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.RefreshToken == "" {
		badRequest(w, "refresh_token is required")
		return
	}
	pair, err := h.TokenService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, h.Logger, "Refresh", err)
		return
	}
	response.OK(http.StatusOK, pair).Write(w)
}

// Logout завершает сессию текущего пользователя
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	if err := h.TokenService.Logout(r.Context(), userID); err != nil {
		writeError(w, h.Logger, "Logout", err)
		return
	}
	response.OK(http.StatusOK, nil).Write(w)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, search, err := pageParams(r, h.Config.DefaultPageSize)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	p, err := h.UserService.List(r.Context(), page, size, search)
	if err != nil {
		writeError(w, h.Logger, "ListUsers", err)
		return
	}
	response.OK(http.StatusOK, service.NewPage(h.views(p.Items), p.Total, p.Page, p.PageSize)).Write(w)
}

func (h *UserHandler) ListRemoved(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.ListRemoved(r.Context())
	if err != nil {
		writeError(w, h.Logger, "ListRemovedUsers", err)
		return
	}
	response.OK(http.StatusOK, h.views(users)).Write(w)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.UserService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, "GetUser", err)
		return
	}
	response.OK(http.StatusOK, h.view(u)).Write(w)
}

// Update меняет профиль. Свой профиль может менять любой, чужой только администратор.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	caller, _ := middleware.GetIdentity(r.Context())
	isAdmin := caller.Role == model.RoleAdmin
	if caller.UserID != id && !isAdmin {
		response.Fail(http.StatusForbidden, "forbidden").Write(w)
		return
	}

	var files openedFiles
	defer files.Close()
	req, img, err := h.readUserForm(w, r, &files)
	if err != nil {
		h.Logger.Warnw("UpdateUser: invalid request", "error", err)
		badRequest(w, err.Error())
		return
	}
	if req.Role != "" && !isAdmin {
		response.Fail(http.StatusForbidden, "only an administrator can change roles").Write(w)
		return
	}

	u, err := h.UserService.Update(r.Context(), id, service.UpdateUserInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Role:     req.Role,
		Image:    img,
	})
	if err != nil {
		writeError(w, h.Logger, "UpdateUser", err)
		return
	}
	response.OK(http.StatusOK, h.view(u)).Write(w)
}

// SetStatus включает или отключает учётную запись
func (h *UserHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Active == nil {
		badRequest(w, "active is required")
		return
	}
	if caller, _ := middleware.GetIdentity(r.Context()); caller.UserID == id && !*req.Active {
		badRequest(w, "you can't disable your own account")
		return
	}
	u, err := h.UserService.SetStatus(r.Context(), id, *req.Active)
	if err != nil {
		writeError(w, h.Logger, "SetUserStatus", err)
		return
	}
	response.OK(http.StatusOK, h.view(u)).Write(w)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if caller, _ := middleware.GetIdentity(r.Context()); caller.UserID == id {
		badRequest(w, "you can't delete your own account")
		return
	}
	if err := h.UserService.Delete(r.Context(), id); err != nil {
		writeError(w, h.Logger, "DeleteUser", err)
		return
	}
	response.OK(http.StatusOK, nil).Write(w)
}
