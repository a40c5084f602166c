package commitmsg

import (
	"log"
	"strings"
)

const (
	begin = "--- uploaded artifacts begin ---"
	end   = "--- uploaded artifacts end ---"
)

// Generate produces a commit message for a model upload.
// The headline names the model; the uploaded artifact
// file names are listed between begin/end markers.
func Generate(modelName string, files []string) string {
	var sb strings.Builder

	sb.WriteString("Add model: ")
	sb.WriteString(modelName)
	sb.WriteByte('\n')
	sb.WriteByte('\n')
	sb.WriteString(begin)
	sb.WriteByte('\n')

	for _, f := range files {
		sb.WriteString(f)
		sb.WriteByte('\n')
	}

	sb.WriteString(end)
	sb.WriteByte('\n')

	return sb.String()
}

// ExtractFiles extracts the list of uploaded artifacts
// from a commit message delimited by begin/end markers.
func ExtractFiles(msg string) []string {
	var files []string

	betweenMarkers := false

	for _, line := range strings.Split(msg, "\n") {
		switch line {
		case begin:
			betweenMarkers = true
		case end:
			betweenMarkers = false
		default:
			if betweenMarkers {
				files = append(files, line)
			}
		}
	}

	if betweenMarkers {
		log.Print("unable to find end marker in commit message")

		return nil
	}

	return files
}
