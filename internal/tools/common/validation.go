package common

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/teemow/gdrive-mcp/internal/drive"
)

// GoogleID validates Drive file, folder and document IDs
var GoogleID = validation.Match(drive.IDPattern()).Error("must be a valid Google Drive ID")

// GoogleIDs validates every element of a list of IDs
var GoogleIDs = validation.Each(GoogleID)

// Validatable is implemented by tool parameter structs
type Validatable interface {
	Validate() error
}
