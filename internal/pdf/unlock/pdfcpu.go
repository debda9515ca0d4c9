package unlock

import (
	"context"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// PDFCPU decrypts in-process with pdfcpu. The supplied password is tried as
// both user and owner password. pdfcpu cannot be interrupted, so ctx is only
// consulted before the work starts.
type PDFCPU struct{}

// NewPDFCPU creates the in-process tool
func NewPDFCPU() *PDFCPU {
	// pdfcpu would otherwise create a config directory under the user's home
	disableConfigDir.Do(api.DisableConfigDir)
	return &PDFCPU{}
}

// Name returns the tool name used in logs and diagnostics
func (p *PDFCPU) Name() string {
	return "pdfcpu"
}

// Decrypt writes a decrypted copy of inputPath to outputPath
func (p *PDFCPU) Decrypt(ctx context.Context, inputPath, outputPath, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password

	if err := api.DecryptFile(inputPath, outputPath, conf); err != nil {
		_ = os.Remove(outputPath)
		return &ToolError{Tool: p.Name(), Err: err}
	}
	return nil
}
