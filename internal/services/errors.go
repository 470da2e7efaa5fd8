package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrPhotoRequired          = errors.New("receipt photo is required")
	ErrInvalidPoints          = errors.New("invalid points amount")
	ErrRateUnavailable        = errors.New("exchange rate unavailable")
	ErrAlreadyProcessed       = errors.New("activity already processed")
	ErrActivityNotFound       = errors.New("activity not found")
	ErrActivityExpired        = errors.New("activity expired")
	ErrWrongTrack             = errors.New("activity is not in the expected track")
	ErrRestaurantNotFound     = errors.New("restaurant not found")
	ErrProfileNotFound        = errors.New("profile not found")
	ErrOutsideRedemptionHours = errors.New("outside redemption hours")
	ErrInsufficientPoints     = errors.New("insufficient points")
	ErrForbidden              = errors.New("not allowed")
	ErrInvalidSchedule        = errors.New("invalid redemption schedule")
	ErrUploadFailed           = errors.New("receipt upload failed")
)

// EligibilityError is a business-rule rejection carrying the reason shown to the customer.
type EligibilityError struct {
	Reason string
}

func (e *EligibilityError) Error() string {
	return "redemption not eligible: " + e.Reason
}

// RedemptionWarningError wraps a failed redemption validation.
type RedemptionWarningError struct {
	Warning string
}

func (e *RedemptionWarningError) Error() string {
	return "redemption rejected: " + e.Warning
}

// SettlementErrorInfo is the client-facing description of a settlement failure.
type SettlementErrorInfo struct {
	Name      string
	Code      int
	Status    int
	Retryable bool
	Message   map[string]string
}

var (
	SettlementErrorValidation = SettlementErrorInfo{
		Name:   "InvalidInput",
		Code:   -41001,
		Status: 400,
		Message: map[string]string{
			"en": "The submitted values are not valid",
			"es": "Los valores enviados no son válidos",
		},
	}
	SettlementErrorPhotoRequired = SettlementErrorInfo{
		Name:   "PhotoRequired",
		Code:   -41002,
		Status: 400,
		Message: map[string]string{
			"en": "This restaurant requires a photo of the bill",
			"es": "Este restaurante requiere una foto de la cuenta",
		},
	}
	SettlementErrorRateUnavailable = SettlementErrorInfo{
		Name:      "RateUnavailable",
		Code:      -41010,
		Status:    503,
		Retryable: true,
		Message: map[string]string{
			"en": "Currency rates are unavailable, please try again",
			"es": "Las tasas de cambio no están disponibles, inténtalo de nuevo",
		},
	}
	SettlementErrorAlreadyProcessed = SettlementErrorInfo{
		Name:   "AlreadyProcessed",
		Code:   -41020,
		Status: 409,
		Message: map[string]string{
			"en": "This has already been handled",
			"es": "Esto ya fue procesado",
		},
	}
	SettlementErrorEligibility = SettlementErrorInfo{
		Name:   "EligibilityDenied",
		Code:   -41030,
		Status: 422,
		Message: map[string]string{
			"en": "This customer cannot redeem right now",
			"es": "Este cliente no puede canjear en este momento",
		},
	}
	SettlementErrorOutsideHours = SettlementErrorInfo{
		Name:   "OutsideRedemptionHours",
		Code:   -41031,
		Status: 422,
		Message: map[string]string{
			"en": "Redemptions are not available at this time",
			"es": "Los canjes no están disponibles en este horario",
		},
	}
	SettlementErrorInsufficientPoints = SettlementErrorInfo{
		Name:   "InsufficientPoints",
		Code:   -41032,
		Status: 422,
		Message: map[string]string{
			"en": "Not enough points",
			"es": "Puntos insuficientes",
		},
	}
	SettlementErrorNotFound = SettlementErrorInfo{
		Name:   "NotFound",
		Code:   -41040,
		Status: 404,
		Message: map[string]string{
			"en": "Record not found",
			"es": "Registro no encontrado",
		},
	}
	SettlementErrorForbidden = SettlementErrorInfo{
		Name:   "Forbidden",
		Code:   -41041,
		Status: 403,
		Message: map[string]string{
			"en": "You are not allowed to do this",
			"es": "No tienes permiso para hacer esto",
		},
	}
	SettlementErrorUpload = SettlementErrorInfo{
		Name:      "UploadFailed",
		Code:      -41050,
		Status:    502,
		Retryable: true,
		Message: map[string]string{
			"en": "The receipt could not be stored, please try again",
			"es": "No se pudo guardar el recibo, inténtalo de nuevo",
		},
	}
	SettlementErrorInternal = SettlementErrorInfo{
		Name:      "Internal",
		Code:      -41099,
		Status:    500,
		Retryable: true,
		Message: map[string]string{
			"en": "Something went wrong",
			"es": "Algo salió mal",
		},
	}
)

// ClassifyError maps a service error onto the settlement taxonomy.
func ClassifyError(err error) SettlementErrorInfo {
	var eligibility *EligibilityError
	var warning *RedemptionWarningError
	switch {
	case err == nil:
		return SettlementErrorInfo{}
	case errors.As(err, &eligibility):
		return SettlementErrorEligibility
	case errors.As(err, &warning):
		return SettlementErrorValidation
	case errors.Is(err, ErrAlreadyProcessed):
		return SettlementErrorAlreadyProcessed
	case errors.Is(err, ErrRateUnavailable):
		return SettlementErrorRateUnavailable
	case errors.Is(err, ErrPhotoRequired):
		return SettlementErrorPhotoRequired
	case errors.Is(err, ErrOutsideRedemptionHours):
		return SettlementErrorOutsideHours
	case errors.Is(err, ErrInsufficientPoints):
		return SettlementErrorInsufficientPoints
	case errors.Is(err, ErrActivityNotFound), errors.Is(err, ErrRestaurantNotFound), errors.Is(err, ErrProfileNotFound):
		return SettlementErrorNotFound
	case errors.Is(err, ErrForbidden):
		return SettlementErrorForbidden
	case errors.Is(err, ErrUploadFailed):
		return SettlementErrorUpload
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidPoints), errors.Is(err, ErrInvalidSchedule),
		errors.Is(err, ErrActivityExpired), errors.Is(err, ErrWrongTrack):
		return SettlementErrorValidation
	default:
		return SettlementErrorInternal
	}
}

// DetailFor returns the most specific human-readable message for err.
func DetailFor(err error) string {
	var eligibility *EligibilityError
	if errors.As(err, &eligibility) {
		return eligibility.Reason
	}
	var warning *RedemptionWarningError
	if errors.As(err, &warning) {
		return warning.Warning
	}
	if ClassifyError(err).Name == SettlementErrorInternal.Name {
		return ""
	}
	return err.Error()
}

func wrapf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
