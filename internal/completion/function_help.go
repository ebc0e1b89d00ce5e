package completion

import "strings"

// FormatFunctionOneLiner is the status line shown while a call is typed: the
// signature and the first sentence of the description.
func FormatFunctionOneLiner(fn FunctionMetadata) string {
	sig := FormatFunctionSignature(fn)
	desc := firstSentence(fn.Description)
	if desc == "" {
		return sig
	}
	return sig + " : " + desc
}

// FormatFunctionSignature falls back to the call shape when the function has
// no declared signature.
func FormatFunctionSignature(fn FunctionMetadata) string {
	switch {
	case fn.Signature != "":
		return fn.Signature
	case fn.IsMethod:
		return "value." + fn.Name + "(...)"
	default:
		return fn.Name + "(...)"
	}
}

// FormatFunctionLines lists the signature, the full description and at most
// maxExamples examples (all when maxExamples <= 0), one per element.
func FormatFunctionLines(fn FunctionMetadata, maxExamples int) []string {
	lines := []string{FormatFunctionSignature(fn)}
	if desc := strings.TrimSpace(fn.Description); desc != "" {
		lines = append(lines, desc)
	}
	n := 0
	for _, ex := range fn.Examples {
		if maxExamples > 0 && n == maxExamples {
			break
		}
		if ex = strings.TrimSpace(ex); ex != "" {
			lines = append(lines, "e.g. "+ex)
			n++
		}
	}
	return lines
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ". "); i >= 0 {
		return s[:i]
	}
	return strings.TrimSuffix(s, ".")
}
