package pdfcpu

import (
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"creditscope/internal/port"
)

// encryptionMarkers are substrings of pdfcpu errors raised for files that need a password.
var encryptionMarkers = []string{
	"password",
	"encrypt",
	"decrypt",
}

// Codec implements port.PDFCodec on top of pdfcpu.
type Codec struct{}

// NewCodec creates a pdfcpu-backed PDFCodec.
func NewCodec() *Codec {
	return &Codec{}
}

var _ port.PDFCodec = (*Codec)(nil)

func (c *Codec) PageCount(path string) (int, error) {
	return api.PageCountFile(path)
}

func (c *Codec) IsEncryptionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range encryptionMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func (c *Codec) Decrypt(inPath, outPath, password string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.UserPW = password
	conf.OwnerPW = password
	return api.DecryptFile(inPath, outPath, conf)
}
