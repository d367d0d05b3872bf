package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockPDFCodec is a mock implementation of port.PDFCodec.
type MockPDFCodec struct {
	mock.Mock
}

func (m *MockPDFCodec) PageCount(path string) (int, error) {
	args := m.Called(path)
	return args.Int(0), args.Error(1)
}

func (m *MockPDFCodec) IsEncryptionError(err error) bool {
	args := m.Called(err)
	return args.Bool(0)
}

func (m *MockPDFCodec) Decrypt(inPath, outPath, password string) error {
	args := m.Called(inPath, outPath, password)
	return args.Error(0)
}

// MockPageRasterizer is a mock implementation of port.PageRasterizer.
type MockPageRasterizer struct {
	mock.Mock
}

func (m *MockPageRasterizer) Render(ctx context.Context, pdfPath, outDir string, dpi int) ([]string, error) {
	args := m.Called(ctx, pdfPath, outDir, dpi)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if fn, ok := args.Get(0).(func(ctx context.Context, pdfPath, outDir string, dpi int) []string); ok {
		return fn(ctx, pdfPath, outDir, dpi), args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
