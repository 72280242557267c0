package structtag

// Validate walks tree bottom-up, enforcing the structural tag's
// well-formedness rules and computing each node's derived attributes
// (bounded, end_set, contains_unlimited_text) on the way back up.
func Validate(tree Format) (*Annotated, error) {
	return validateNode(tree)
}

func validateNode(f Format) (*Annotated, error) {
	switch v := f.(type) {
	case ConstString:
		if v.Value == "" {
			return nil, validationError("const_string", "value must be non-empty")
		}
		return &Annotated{Node: f, Bounded: true, EndSet: nil}, nil

	case JSONSchema:
		return &Annotated{Node: f, Bounded: false, ContainsUnlimitedText: true}, nil

	case QwenXMLParameter:
		return &Annotated{Node: f, Bounded: false, ContainsUnlimitedText: true}, nil

	case AnyText:
		if err := requireNonEmptyStrings("any_text.excludes", v.Excludes); err != nil {
			return nil, err
		}
		return &Annotated{Node: f, Bounded: false, ContainsUnlimitedText: true}, nil

	case Grammar:
		return &Annotated{Node: f, Bounded: false, ContainsUnlimitedText: true}, nil

	case Regex:
		if err := requireNonEmptyStrings("regex.excludes", v.Excludes); err != nil {
			return nil, err
		}
		return &Annotated{Node: f, Bounded: false, ContainsUnlimitedText: true}, nil

	case Sequence:
		return validateSequence(v)

	case Or:
		return validateOr(v)

	case Tag:
		return validateTag(v)

	case TriggeredTags:
		return validateTriggeredTags(v)

	case TagsWithSeparator:
		return validateTagsWithSeparator(v)
	}

	return nil, validationError("", "unrecognized structural tag node")
}

func requireNonEmptyStrings(field string, values []string) error {
	for _, v := range values {
		if v == "" {
			return validationError(field, "entries of %s must be non-empty", field)
		}
	}
	return nil
}

func validateSequence(v Sequence) (*Annotated, error) {
	if len(v.Elements) == 0 {
		return nil, validationError("sequence", "elements must be non-empty")
	}

	children := make([]*Annotated, 0, len(v.Elements))
	for _, el := range v.Elements {
		child, err := validateNode(el)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	for i, child := range children {
		if i < len(children)-1 && !child.Bounded {
			return nil, validationError("sequence", "every element except the last must be bounded")
		}
	}

	last := children[len(children)-1]
	return &Annotated{
		Node:                  v,
		Children:              children,
		Bounded:               last.Bounded,
		EndSet:                last.EndSet,
		ContainsUnlimitedText: last.ContainsUnlimitedText,
	}, nil
}

func validateOr(v Or) (*Annotated, error) {
	if len(v.Elements) == 0 {
		return nil, validationError("or", "elements must be non-empty")
	}

	children := make([]*Annotated, 0, len(v.Elements))
	for _, el := range v.Elements {
		child, err := validateNode(el)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	allBounded, allUnbounded := true, true
	var endSet []string
	unlimited := false
	for _, child := range children {
		if child.Bounded {
			allUnbounded = false
			endSet = append(endSet, child.EndSet...)
		} else {
			allBounded = false
		}
		unlimited = unlimited || child.ContainsUnlimitedText
	}
	if !allBounded && !allUnbounded {
		return nil, validationError("or", "branches must be either all bounded or all unbounded")
	}

	return &Annotated{
		Node:                  v,
		Children:              children,
		Bounded:               allBounded,
		EndSet:                endSet,
		ContainsUnlimitedText: unlimited,
	}, nil
}

func validateTag(v Tag) (*Annotated, error) {
	if v.Begin == "" {
		return nil, validationError("tag", "begin must be non-empty")
	}

	nonEmpty := 0
	for _, e := range v.End.Values {
		if e != "" {
			nonEmpty++
		}
	}
	if len(v.End.Values) > 1 && nonEmpty < len(v.End.Values)-1 {
		return nil, validationError("tag", "all but at most one entry of end must be non-empty")
	}
	if len(v.End.Values) == 0 {
		return nil, validationError("tag", "end must be non-empty")
	}

	content, err := validateNode(v.Content)
	if err != nil {
		return nil, err
	}
	if content.ContainsUnlimitedText && nonEmpty == 0 {
		return nil, validationError("tag", "unbounded content requires at least one non-empty end string")
	}

	return &Annotated{
		Node:     v,
		Children: []*Annotated{content},
		Bounded:  true,
		EndSet:   v.End.Values,
	}, nil
}

func validateTriggeredTags(v TriggeredTags) (*Annotated, error) {
	if len(v.Triggers) == 0 {
		return nil, validationError("triggered_tags", "triggers must be non-empty")
	}
	if err := requireNonEmptyStrings("triggered_tags.triggers", v.Triggers); err != nil {
		return nil, err
	}
	if len(v.Tags) == 0 {
		return nil, validationError("triggered_tags", "tags must be non-empty")
	}
	if err := requireNonEmptyStrings("triggered_tags.excludes", v.Excludes); err != nil {
		return nil, err
	}

	children := make([]*Annotated, 0, len(v.Tags))
	for _, tag := range v.Tags {
		matches := 0
		for _, trig := range v.Triggers {
			if isPrefixOf(trig, tag.Begin) {
				matches++
			}
		}
		if matches != 1 {
			return nil, validationError("triggered_tags", "tag %q must be prefixed by exactly one trigger, matched %d", tag.Begin, matches)
		}
		child, err := validateNode(tag)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	return &Annotated{
		Node:                  v,
		Children:              children,
		Bounded:               v.StopAfterFirst,
		ContainsUnlimitedText: !v.StopAfterFirst,
	}, nil
}

func validateTagsWithSeparator(v TagsWithSeparator) (*Annotated, error) {
	if len(v.Tags) == 0 {
		return nil, validationError("tags_with_separator", "tags must be non-empty")
	}

	children := make([]*Annotated, 0, len(v.Tags))
	for _, tag := range v.Tags {
		child, err := validateNode(tag)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	return &Annotated{
		Node:                  v,
		Children:              children,
		Bounded:               v.StopAfterFirst,
		ContainsUnlimitedText: !v.StopAfterFirst,
	}, nil
}

func isPrefixOf(a, b string) bool {
	return len(a) <= len(b) && b[:len(a)] == a
}
