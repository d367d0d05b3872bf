package port

import "context"

// PDFCodec opens and decrypts PDF files.
type PDFCodec interface {
	// PageCount returns the number of pages of an unencrypted (or empty-password) PDF.
	PageCount(path string) (int, error)
	// IsEncryptionError reports whether an error from PageCount means the file needs a password.
	IsEncryptionError(err error) bool
	// Decrypt writes a decrypted copy of inPath to outPath using password.
	Decrypt(inPath, outPath, password string) error
}

// PageRasterizer renders PDF pages to image files.
type PageRasterizer interface {
	// Render writes one PNG per page into outDir and returns their paths in page order.
	Render(ctx context.Context, pdfPath, outDir string, dpi int) ([]string, error)
}
