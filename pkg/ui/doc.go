// Package ui renders terminal output for the downloader: styled status
// messages, the end-of-run report and a single-line progress bar.
//
// Output is line-oriented. The progress bar is drawn with the bubbles
// progress model's ViewAs and redrawn in place with a carriage return, so no
// full-screen program is involved. Colour can be switched off per writer.
package ui
