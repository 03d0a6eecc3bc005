package folio

import "regexp"

// ContentMatcher reports whether slot text is a shorthand for a component.
type ContentMatcher func(content string) bool

// MatchPattern matches slot text against re.
func MatchPattern(re *regexp.Regexp) ContentMatcher {
	return re.MatchString
}

// ZenCoding lets a component replace shorthand typed into an otherwise
// empty block, for example "# " becoming a heading.
type ZenCoding struct {
	// Key is the trigger key, usually " " or "Enter".
	Key KeyMatcher

	// Match tests the slot's text, without a trailing newline.
	Match ContentMatcher

	// GenerateInitData builds the new component's state and slots from the
	// matched text.
	GenerateInitData func(content string) InitData
}

// ZenCodingInterceptor is a single shorthand rule. Action performs the
// substitution and returns false when it could not.
type ZenCodingInterceptor struct {
	Key    KeyMatcher
	Match  ContentMatcher
	Action func(content string) bool
}

type interceptorEntry struct {
	id int
	i  ZenCodingInterceptor
}

type interceptorList struct {
	next    int
	entries []interceptorEntry
}

func (l *interceptorList) push(i ZenCodingInterceptor) {
	l.next++
	l.entries = append(l.entries, interceptorEntry{id: l.next, i: i})
}

func (l *interceptorList) add(i ZenCodingInterceptor) func() {
	l.next++
	id := l.next
	l.entries = append([]interceptorEntry{{id: id, i: i}}, l.entries...)
	return func() {
		for n, e := range l.entries {
			if e.id == id {
				l.entries = append(l.entries[:n:n], l.entries[n+1:]...)
				return
			}
		}
	}
}

func (l *interceptorList) list() []ZenCodingInterceptor {
	out := make([]ZenCodingInterceptor, len(l.entries))
	for n, e := range l.entries {
		out[n] = e.i
	}
	return out
}

// definitionInterceptor turns a definition's ZenCoding into an interceptor
// that swaps the current block for a new instance of the definition.
func (k *Keyboard) definitionInterceptor(d *Definition) ZenCodingInterceptor {
	zc := d.ZenCoding
	return ZenCodingInterceptor{
		Key:   zc.Key,
		Match: zc.Match,
		Action: func(content string) bool {
			return k.substitute(d, content)
		},
	}
}

func (k *Keyboard) substitute(d *Definition, content string) bool {
	sel, cmd := k.selection, k.commander
	slot := sel.CommonAncestorSlot()
	if slot == nil {
		return false
	}
	var init InitData
	if d.ZenCoding.GenerateInitData != nil {
		init = d.ZenCoding.GenerateInitData(content)
	}
	inst, err := d.New(init)
	if err != nil {
		cmd.logger.Warn("zen coding", "component", d.Name, "error", err)
		return false
	}

	if slot.Accepts(inst.Type()) {
		sel.SelectSlot(slot)
	} else {
		parent := slot.Parent()
		if parent == nil || len(parent.slots) > 1 || parent.Parent() == nil {
			return false
		}
		sel.SelectComponent(parent, false)
	}
	if !sel.IsCollapsed() {
		cmd.Delete(false)
	}
	if !cmd.Insert(inst) {
		return false
	}

	if first := inst.FirstSlot(); first != nil {
		sel.SetPosition(first, 0)
	} else if p := inst.Parent(); p != nil {
		sel.SetPosition(p, inst.Index()+1)
	}
	return true
}
