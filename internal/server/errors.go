package server

import (
	"fmt"
	"net/http"

	"clinote/internal/domain"
)

const (
	msgNoText             = "No text provided"
	msgNoFileUploaded     = "No file uploaded"
	msgNoFileSelected     = "No file selected"
	msgInvalidFileType    = "Invalid file type. Use PNG, JPG, or JPEG"
	msgFileTooLarge       = "File too large. Maximum size is %d MB"
	msgExtractionFailed   = "Could not extract text from image. Image may be unclear or contain no text."
	msgServiceUnavailable = "Model service is not running. Please start Ollama."
	msgModelNotFound      = "Model %s not found. Please run: ollama pull %s"
	msgEmptyResponse      = "Empty response from model service"
	msgGenerationError    = "Error generating summary"
	msgTimeout            = "Model service timed out"
	msgSomethingWentWrong = "Something went wrong"
	msgServiceReady       = "ok"
)

// errorResponse maps a pipeline error to the status and the message shown
// to the user. Internal error text never reaches the response.
func errorResponse(err error, model string) (int, string) {
	switch domain.KindOf(err) {
	case domain.KindEmptyInput:
		return http.StatusBadRequest, msgNoText
	case domain.KindExtractionFailed:
		return http.StatusBadRequest, msgExtractionFailed
	case domain.KindInvalidUpload:
		return http.StatusBadRequest, msgInvalidFileType
	case domain.KindServiceUnavailable:
		return http.StatusServiceUnavailable, msgServiceUnavailable
	case domain.KindModelNotFound:
		return http.StatusInternalServerError, fmt.Sprintf(msgModelNotFound, model, model)
	case domain.KindEmptyResponse:
		return http.StatusInternalServerError, msgEmptyResponse
	case domain.KindGenerationError:
		return http.StatusInternalServerError, msgGenerationError
	case domain.KindTimeout:
		return http.StatusGatewayTimeout, msgTimeout
	default:
		return http.StatusInternalServerError, msgSomethingWentWrong
	}
}

func fileTooLargeMessage(limit int64) string {
	return fmt.Sprintf(msgFileTooLarge, limit>>20)
}
