package ui

import "github.com/atotto/clipboard"

func writeClipboard(text string) error {
	return clipboard.WriteAll(text)
}
