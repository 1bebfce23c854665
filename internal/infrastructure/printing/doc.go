// Package printing turns traite documents into PDF and PNG artifacts.
//
// Rendering goes through an ordered Chain of strategies: chromedp first
// (A4, zero margins, device scale 2), wkhtmltopdf as the PDF fallback.
// The composited mode screenshots each tranche and lays the images onto
// A4 pages with ImageComposer.
//
//	chain := NewChain(logger)
//	artifact, err := chain.Run(ctx, "pdf rendering failed",
//	    Strategy{Name: chrome.Name(), Run: func(ctx context.Context) (*Artifact, error) {
//	        return chrome.RenderPDF(ctx, req)
//	    }},
//	    Strategy{Name: wk.Name(), Run: func(ctx context.Context) (*Artifact, error) {
//	        return wk.RenderPDF(ctx, req)
//	    }},
//	)
package printing
