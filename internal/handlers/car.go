package handlers

import (
	"TrackingCar/internal/config"
	"TrackingCar/internal/middleware"
	"TrackingCar/internal/model"
	"TrackingCar/internal/response"
	"TrackingCar/internal/service"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CarHandler — автомобили и их вложения.
type CarHandler struct {
	CarService *service.CarService
	Logger     *zap.SugaredLogger
	Config     *config.Config
}

func NewCarHandler(cars *service.CarService, logger *zap.SugaredLogger, cfg *config.Config) *CarHandler {
	return &CarHandler{CarService: cars, Logger: logger, Config: cfg}
}

// CarRequest — поля автомобиля во входящем запросе.
type CarRequest struct {
	CarType       string     `json:"car_type"`
	ChassisNumber string     `json:"chassis_number"`
	PlateNumber   string     `json:"plate_number"`
	Status        string     `json:"status"`
	BodyCondition string     `json:"body_condition"`
	ReceiptDate   *time.Time `json:"receipt_date"`
	Note          string     `json:"note"`
	TrackingCode  string     `json:"tracking_code"`
	LocationID    *string    `json:"location_id"`
	OwnershipID   *string    `json:"ownership_id"`
}

func (c CarRequest) fields() model.CarFields {
	return model.CarFields{
		CarType:       c.CarType,
		ChassisNumber: c.ChassisNumber,
		PlateNumber:   c.PlateNumber,
		Status:        c.Status,
		BodyCondition: c.BodyCondition,
		ReceiptDate:   c.ReceiptDate,
		Note:          c.Note,
		TrackingCode:  c.TrackingCode,
		LocationID:    c.LocationID,
		OwnershipID:   c.OwnershipID,
	}
}

func (h *CarHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, search, err := pageParams(r, h.Config.DefaultPageSize)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	p, err := h.CarService.List(r.Context(), page, size, search)
	if err != nil {
		writeError(w, h.Logger, "ListCars", err)
		return
	}
	response.OK(http.StatusOK, p).Write(w)
}

func (h *CarHandler) ListRemoved(w http.ResponseWriter, r *http.Request) {
	cars, err := h.CarService.ListRemoved(r.Context())
	if err != nil {
		writeError(w, h.Logger, "ListRemovedCars", err)
		return
	}
	response.OK(http.StatusOK, cars).Write(w)
}

func (h *CarHandler) Get(w http.ResponseWriter, r *http.Request) {
	car, err := h.CarService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, "GetCar", err)
		return
	}
	response.OK(http.StatusOK, car).Write(w)
}

// Create пакетное создание автомобилей.
// multipart: поле cars — JSON-массив, файлы annual[i], authorization[i], document[i] для i-го автомобиля.
// Без файлов можно прислать JSON-массив телом запроса.
func (h *CarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var files openedFiles
	defer files.Close()

	var reqs []CarRequest
	var specs []service.CarSpec
	if isMultipart(r) {
		if err := parseMultipart(w, r, h.Config.MaxUploadMB); err != nil {
			h.Logger.Warnw("CreateCars: invalid multipart form", "error", err)
			badRequest(w, err.Error())
			return
		}
		if err := json.Unmarshal([]byte(r.FormValue("cars")), &reqs); err != nil {
			badRequest(w, "invalid cars field: "+err.Error())
			return
		}
		for i, req := range reqs {
			spec := service.CarSpec{Fields: req.fields(), Files: map[model.AttachmentCategory]service.FileUpload{}}
			for _, cat := range model.AttachmentCategories {
				fh := formFile(r.MultipartForm, fmt.Sprintf("%s[%d]", cat, i))
				if fh == nil {
					continue
				}
				f, err := files.open(fh)
				if err != nil {
					badRequest(w, "can't read file "+fh.Filename)
					return
				}
				spec.Files[cat] = f
			}
			specs = append(specs, spec)
		}
	} else {
		if err := decodeJSON(r, &reqs); err != nil {
			badRequest(w, err.Error())
			return
		}
		for _, req := range reqs {
			specs = append(specs, service.CarSpec{Fields: req.fields()})
		}
	}

	cars, err := h.CarService.Create(r.Context(), specs)
	if err != nil {
		writeError(w, h.Logger, "CreateCars", err)
		return
	}
	response.OK(http.StatusCreated, cars).Write(w)
}

// Update заменяет поля автомобиля и, при наличии, файлы категорий.
// multipart: поле car — JSON, файлы annual, authorization, document.
func (h *CarHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var files openedFiles
	defer files.Close()

	var req CarRequest
	uploads := map[model.AttachmentCategory]service.FileUpload{}
	if isMultipart(r) {
		if err := parseMultipart(w, r, h.Config.MaxUploadMB); err != nil {
			h.Logger.Warnw("UpdateCar: invalid multipart form", "car_id", id, "error", err)
			badRequest(w, err.Error())
			return
		}
		if err := json.Unmarshal([]byte(r.FormValue("car")), &req); err != nil {
			badRequest(w, "invalid car field: "+err.Error())
			return
		}
		for _, cat := range model.AttachmentCategories {
			fh := formFile(r.MultipartForm, string(cat))
			if fh == nil {
				continue
			}
			f, err := files.open(fh)
			if err != nil {
				badRequest(w, "can't read file "+fh.Filename)
				return
			}
			uploads[cat] = f
		}
	} else if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	car, err := h.CarService.Update(r.Context(), id, req.fields(), uploads)
	if err != nil {
		writeError(w, h.Logger, "UpdateCar", err)
		return
	}
	response.OK(http.StatusOK, car).Write(w)
}

// Delete мягкое удаление; с hard=true физическое, только для администратора.
func (h *CarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	hard := false
	if v := r.URL.Query().Get("hard"); v != "" {
		var err error
		if hard, err = strconv.ParseBool(v); err != nil {
			badRequest(w, "invalid hard flag")
			return
		}
	}

	var err error
	if hard {
		if caller, _ := middleware.GetIdentity(r.Context()); caller.Role != model.RoleAdmin {
			response.Fail(http.StatusForbidden, "forbidden").Write(w)
			return
		}
		err = h.CarService.Purge(r.Context(), id)
	} else {
		err = h.CarService.Delete(r.Context(), id)
	}
	if err != nil {
		writeError(w, h.Logger, "DeleteCar", err)
		return
	}
	response.OK(http.StatusOK, nil).Write(w)
}
