package main

import (
	"regexp"

	"github.com/phroun/folio"
)

// definitions returns the components the REPL knows about.
func definitions() []*folio.Definition {
	return []*folio.Definition{
		{
			Name: "doc",
			Kind: folio.Division,
			Type: folio.BlockComponentType,
			Slots: func() []*folio.Slot {
				return []*folio.Slot{folio.NewSlot(folio.BlockComponentType)}
			},
		},
		{
			Name: "paragraph",
			Kind: folio.Branch,
			Type: folio.BlockComponentType,
			Slots: func() []*folio.Slot {
				return []*folio.Slot{folio.NewSlot(folio.TextType, folio.InlineComponentType)}
			},
		},
		{
			Name: "heading",
			Kind: folio.Branch,
			Type: folio.BlockComponentType,
			Slots: func() []*folio.Slot {
				return []*folio.Slot{folio.NewSlot(folio.TextType)}
			},
			ZenCoding: &folio.ZenCoding{
				Key:   folio.Key(" "),
				Match: folio.MatchPattern(regexp.MustCompile(`^#{1,6}$`)),
				GenerateInitData: func(content string) folio.InitData {
					return folio.InitData{State: folio.State{"level": len(content)}}
				},
			},
		},
		{
			Name: "todo",
			Kind: folio.Branch,
			Type: folio.BlockComponentType,
			Slots: func() []*folio.Slot {
				return []*folio.Slot{folio.NewSlot(folio.TextType, folio.InlineComponentType)}
			},
			ZenCoding: &folio.ZenCoding{
				Key:   folio.Key(" "),
				Match: func(content string) bool { return content == "[]" || content == "[x]" },
				GenerateInitData: func(content string) folio.InitData {
					return folio.InitData{State: folio.State{"done": content == "[x]"}}
				},
			},
		},
		{
			Name: "rule",
			Kind: folio.Leaf,
			Type: folio.BlockComponentType,
			ZenCoding: &folio.ZenCoding{
				Key:   folio.Key("Enter"),
				Match: func(content string) bool { return content == "---" },
			},
		},
		{
			Name: "image",
			Kind: folio.Leaf,
			Type: folio.InlineComponentType,
		},
	}
}
