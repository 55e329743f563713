package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/re-trade/checkout-api/internal/adapter/observ"
	domain "github.com/re-trade/checkout-api/internal/entity"
	"github.com/re-trade/checkout-api/internal/usecase"
)

const maxImageBytes = 5 << 20 // per image

type RegistrationHandler struct {
	reg *usecase.Registration
}

func NewRegistrationHandler(reg *usecase.Registration) *RegistrationHandler {
	return &RegistrationHandler{reg: reg}
}

// Register accepts the whole wizard as one multipart submission: scalar
// fields plus up to four images (avatar/background may instead arrive as
// already-uploaded URLs).
func (h *RegistrationHandler) Register(c *gin.Context) {
	form := domain.RegistrationForm{
		ShopName:     c.PostForm("shopName"),
		Description:  c.PostForm("description"),
		Email:        c.PostForm("email"),
		Phone:        c.PostForm("phone"),
		AddressLine:  c.PostForm("addressLine"),
		ProvinceCode: c.PostForm("provinceCode"),
		DistrictCode: c.PostForm("districtCode"),
		WardCode:     c.PostForm("wardCode"),
		TaxCode:      c.PostForm("taxCode"),
		Avatar:       domain.ImageField{URL: c.PostForm("avatarUrl")},
		Background:   domain.ImageField{URL: c.PostForm("backgroundUrl")},
	}

	var err error
	if form.Avatar.URL == "" {
		form.Avatar, err = imageField(c, "avatar")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "avatar: " + err.Error()})
			return
		}
	}
	if form.Background.URL == "" {
		form.Background, err = imageField(c, "background")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "background: " + err.Error()})
			return
		}
	}
	if form.IdentityFront, err = imageBytes(c, "identityFront"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identityFront: " + err.Error()})
		return
	}
	if form.IdentityBack, err = imageBytes(c, "identityBack"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identityBack: " + err.Error()})
		return
	}

	out, err := h.reg.Execute(callerCtx(c), form)
	if err != nil {
		observ.RegistrationOutcomes.WithLabelValues(registrationOutcome(err)).Inc()
		writeRegistrationError(c, err)
		return
	}

	observ.RegistrationOutcomes.WithLabelValues("registered").Inc()
	c.JSON(http.StatusCreated, gin.H{"sellerId": out.SellerID})
}

func imageField(c *gin.Context, part string) (domain.ImageField, error) {
	data, name, err := readPart(c, part)
	if err != nil {
		return domain.ImageField{}, err
	}
	return domain.ImageField{Data: data, Name: name}, nil
}

func imageBytes(c *gin.Context, part string) ([]byte, error) {
	data, _, err := readPart(c, part)
	return data, err
}

func readPart(c *gin.Context, part string) ([]byte, string, error) {
	fh, err := c.FormFile(part)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil // absence is handled downstream
	}
	if err != nil {
		return nil, "", err
	}
	if fh.Size > maxImageBytes {
		return nil, "", errors.New("file too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes))
	if err != nil {
		return nil, "", err
	}
	return data, fh.Filename, nil
}

func registrationOutcome(err error) string {
	var stepErr *usecase.StepErrors
	switch {
	case errors.As(err, &stepErr), errors.Is(err, usecase.ErrUnresolvedAddress):
		return "rejected"
	case errors.Is(err, usecase.ErrRollbackFailed):
		observ.Rollbacks.WithLabelValues("failed").Inc()
		return "rollback_failed"
	case errors.Is(err, usecase.ErrVerificationFailed),
		errors.Is(err, usecase.ErrIdentityImagesRequired):
		observ.Rollbacks.WithLabelValues("succeeded").Inc()
		return "rolled_back"
	default:
		return "failed"
	}
}

func writeRegistrationError(c *gin.Context, err error) {
	var stepErr *usecase.StepErrors
	if errors.As(err, &stepErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  stepErr.Error(),
			"step":   stepErr.Step,
			"fields": stepErr.Fields,
		})
		return
	}
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, usecase.ErrUnresolvedAddress),
		errors.Is(err, usecase.ErrIdentityImagesRequired):
		status = http.StatusBadRequest
	case errors.Is(err, usecase.ErrVerificationFailed):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
