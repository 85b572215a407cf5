package shopify

// IsReadOnly reports whether every operation in a GraphQL document is a
// query. Anonymous shorthand documents ("{ shop { name } }") are queries.
func IsReadOnly(document string) bool {
	for _, op := range operations(document) {
		if op.kind != "query" {
			return false
		}
	}
	return true
}

// operationName returns the name of the first operation, for logging.
func operationName(document string) string {
	ops := operations(document)
	if len(ops) == 0 || ops[0].name == "" {
		return "anonymous"
	}
	return ops[0].name
}

type operation struct {
	kind string
	name string
}

// operations lists the top-level definitions of a document. Fragment
// definitions are skipped. String literals and comments are ignored so a
// keyword inside them cannot change the result.
func operations(document string) []operation {
	var (
		ops       []operation
		depth     int
		atTop     = true
		wantName  bool
		skipFrag  bool
		src       = document
		i         int
		pendingOp *operation
	)

	for i < len(src) {
		ch := src[i]
		switch {
		case ch == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			continue
		case ch == '"':
			i = skipString(src, i)
			continue
		case ch == '{' || ch == '(' || ch == '[':
			if depth == 0 && ch == '{' {
				if atTop && !skipFrag {
					// shorthand query
					ops = append(ops, operation{kind: "query"})
				}
				if pendingOp != nil {
					ops = append(ops, *pendingOp)
					pendingOp = nil
				}
				atTop = false
				wantName = false
			}
			depth++
		case ch == '}' || ch == ')' || ch == ']':
			if depth > 0 {
				depth--
			}
			if depth == 0 && ch == '}' {
				atTop = true
				skipFrag = false
			}
		case isNameStart(ch):
			start := i
			for i < len(src) && isNameChar(src[i]) {
				i++
			}
			word := src[start:i]
			if depth != 0 {
				continue
			}
			switch {
			case atTop && word == "fragment":
				skipFrag = true
				atTop = false
			case atTop:
				pendingOp = &operation{kind: word}
				atTop = false
				wantName = true
			case wantName && pendingOp != nil:
				pendingOp.name = word
				wantName = false
			}
			continue
		}
		i++
	}

	if pendingOp != nil {
		ops = append(ops, *pendingOp)
	}
	return ops
}

func skipString(src string, i int) int {
	if len(src)-i >= 3 && src[i:i+3] == `"""` {
		i += 3
		for i < len(src) {
			if len(src)-i >= 3 && src[i:i+3] == `"""` {
				return i + 3
			}
			i++
		}
		return i
	}
	i++
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case '"':
			return i + 1
		}
		i++
	}
	return i
}

func isNameStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isNameChar(ch byte) bool {
	return isNameStart(ch) || (ch >= '0' && ch <= '9')
}
