// Package banner renders the startup banner.
package banner

import "fmt"

// Banner returns the banner text for the given version.
func Banner(version string) string {
	return fmt.Sprintf("wordseg %s - word boundaries for unspaced scripts\n\n", version)
}
