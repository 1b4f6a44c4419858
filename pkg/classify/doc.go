// Package classify determines a downloaded file's extension from its content.
//
// Only the first HeadSize bytes are inspected. Signatures are tried in a fixed
// order and the first match wins; formats that share a container with a more
// general one (APNG inside PNG, CR2 inside TIFF) are checked first. The URL a
// file came from plays no part in the decision.
//
//	ext, ok, err := classify.Classify(fs, "maps/user/Some Map.tmp")
//	if err == nil && ok {
//		// rename to "maps/user/Some Map" + string(ext)
//	}
package classify
