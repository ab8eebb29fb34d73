package api

import (
	"errors"

	models "SipPulse/internal/domain/models"
	xhttp "SipPulse/pkg/http"
)

// toAppError maps domain analysis errors onto HTTP statuses so clients
// can tell bad parameters apart from a series too thin to analyze.
func toAppError(err error) error {
	var insufficient *models.InsufficientDataError
	if errors.As(err, &insufficient) {
		return xhttp.UnprocessableError(insufficient.Error()).WithError(err)
	}
	var malformed *models.MalformedRowError
	if errors.As(err, &malformed) {
		return xhttp.UnprocessableError(malformed.Error()).WithError(err)
	}
	var config *models.ConfigurationError
	if errors.As(err, &config) {
		return xhttp.BadRequestError(config.Error()).WithError(err)
	}
	return err
}
