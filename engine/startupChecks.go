package engine

import (
	"context"
	"fmt"

	"github.com/drummonds/pdfpages/engine/imageformat"
	"github.com/drummonds/pdfpages/internal/samplepdf"
)

// StartupChecks performs all the checks to make sure everything works
func (serverHandler *ServerHandler) StartupChecks() error {
	if err := rendererChecks(serverHandler.Converter); err != nil {
		Logger.Error("Renderer check failed", "error", err)
		return err
	}
	encoderChecks()
	limitChecks(serverHandler.ServerConfig.MaxUploadMB)
	return nil
}

// rendererChecks converts a generated one page document end to end
func rendererChecks(conv *Converter) error {
	if conv == nil || conv.Renderer == nil {
		return fmt.Errorf("no renderer configured")
	}
	result, err := conv.Convert(context.Background(), samplepdf.Build(1), imageformat.PNG, nil)
	if err != nil {
		return fmt.Errorf("renderer %s cannot convert a test document: %w", conv.Renderer.Name(), err)
	}
	page, _ := result.Page(1)
	Logger.Info("Renderer validated", "renderer", conv.Renderer.Name(), "width", page.Width, "height", page.Height)
	return nil
}

// encoderChecks warns when WebP output will not work
func encoderChecks() {
	if !imageformat.WebPSupported() {
		Logger.Warn("libvips has no WebP save support, WebP conversions will fail", "vips", imageformat.BackendVersion())
		return
	}
	Logger.Info("WebP encoding available", "vips", imageformat.BackendVersion())
}

func limitChecks(maxUploadMB int) {
	if maxUploadMB > 500 {
		Logger.Warn("Upload limit is high; every page of a document is held in memory", "maxUploadMB", maxUploadMB)
	}
}
