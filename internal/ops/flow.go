package ops

import (
	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/operation"
)

// Flow-control operation names. The engine dispatches these by name.
const (
	Fork            = "Fork"
	Merge           = "Merge"
	Subsection      = "Subsection"
	Register        = "Register"
	Label           = "Label"
	Jump            = "Jump"
	ConditionalJump = "Conditional Jump"
	Return          = "Return"
	Comment         = "Comment"
	Magic           = "Magic"
)

// OpensBlock reports whether name starts a block closed by Merge.
func OpensBlock(name string) bool {
	return name == Fork || name == Subsection
}

func flowControl() []operation.Descriptor {
	return []operation.Descriptor{
		{
			Name:        Fork,
			Module:      "Default",
			Description: "Split the input by a delimiter and run the following operations on each piece separately, up to the matching Merge.",
			InputType:   dish.String,
			OutputType:  dish.String,
			FlowControl: true,
			Args: []operation.ArgSpec{
				{Name: "Split delimiter", Type: operation.ArgBinaryShortString, Default: ir.IRString(`\n`)},
				{Name: "Merge delimiter", Type: operation.ArgBinaryShortString, Default: ir.IRString(`\n`)},
				{Name: "Ignore errors", Type: operation.ArgBoolean, Default: ir.IRBool(false)},
			},
		},
		{
			Name:        Merge,
			Module:      "Default",
			Description: "Close the block opened by Fork or Subsection. With Merge all set, every open block ends here.",
			InputType:   dish.String,
			OutputType:  dish.String,
			FlowControl: true,
			Args: []operation.ArgSpec{
				{Name: "Merge all", Type: operation.ArgBoolean, Default: ir.IRBool(true)},
			},
		},
		{
			Name:        Subsection,
			Module:      "Default",
			Description: "Run the following operations, up to the matching Merge, on each part of the input matched by a regular expression. The first capture group is used when present.",
			InputType:   dish.String,
			OutputType:  dish.String,
			FlowControl: true,
			Args: []operation.ArgSpec{
				{Name: "Section (regex)", Type: operation.ArgString, Default: ir.IRString("")},
				{Name: "Case sensitive matching", Type: operation.ArgBoolean, Default: ir.IRBool(true)},
				{Name: "Global matching", Type: operation.ArgBoolean, Default: ir.IRBool(true)},
				{Name: "Ignore errors", Type: operation.ArgBoolean, Default: ir.IRBool(false)},
			},
		},
		{
			Name:        Register,
			Module:      "Regex",
			Description: "Extract data from the input with regular expression capture groups and store it in registers ($R0, $R1, ...) that later operations can use as arguments. Escape a reference as \\$R0 to keep it literally.",
			InfoURL:     "https://wikipedia.org/wiki/Regular_expression#Syntax",
			InputType:   dish.String,
			OutputType:  dish.String,
			FlowControl: true,
			Args: []operation.ArgSpec{
				{Name: "Extractor", Type: operation.ArgBinaryString, Default: ir.IRString(`([\s\S]*)`)},
				{Name: "Case insensitive", Type: operation.ArgBoolean, Default: ir.IRBool(true)},
				{Name: "Multiline matching", Type: operation.ArgBoolean, Default: ir.IRBool(false)},
				{Name: "Dot matches all", Type: operation.ArgBoolean, Default: ir.IRBool(false)},
			},
		},
		{
			Name:        Label,
			Module:      "Default",
			Description: "Provide a target for Jump and Conditional Jump.",
			InputType:   dish.String,
			OutputType:  dish.String,
			FlowControl: true,
			Args: []operation.ArgSpec{
				{Name: "Name", Type: operation.ArgShortString, Default: ir.IRString("")},
			},
		},
		{
			Name:        Jump,
			Module:      "Default",
			Description: "Continue execution at the named Label, at most the given number of times.",
			InputType:   dish.String,
			OutputType:  dish.String,
			FlowControl: true,
			Args: []operation.ArgSpec{
				{Name: "Label name", Type: operation.ArgShortString, Default: ir.IRString("")},
				{Name: "Maximum jumps (if jumping backwards)", Type: operation.ArgNumber, Default: ir.IRInt(10)},
			},
		},
		{
			Name:        ConditionalJump,
			Module:      "Regex",
			Description: "Continue execution at the named Label when the input matches a regular expression (or does not, when inverted).",
			InputType:   dish.String,
			OutputType:  dish.String,
			FlowControl: true,
			Args: []operation.ArgSpec{
				{Name: "Match (regex)", Type: operation.ArgString, Default: ir.IRString("")},
				{Name: "Invert match", Type: operation.ArgBoolean, Default: ir.IRBool(false)},
				{Name: "Label name", Type: operation.ArgShortString, Default: ir.IRString("")},
				{Name: "Maximum jumps (if jumping backwards)", Type: operation.ArgNumber, Default: ir.IRInt(10)},
			},
		},
		{
			Name:        Return,
			Module:      "Default",
			Description: "End the recipe here.",
			InputType:   dish.String,
			OutputType:  dish.String,
			FlowControl: true,
		},
		{
			Name:        Comment,
			Module:      "Default",
			Description: "Annotate the recipe. Has no effect on the data.",
			InputType:   dish.String,
			OutputType:  dish.String,
			FlowControl: true,
			Args: []operation.ArgSpec{
				{Name: "", Type: operation.ArgText, Default: ir.IRString("")},
			},
		},
		{
			Name:        Magic,
			Module:      "Default",
			Description: "Try to detect how the input is encoded by speculatively applying operations, and rank the results.",
			InfoURL:     "https://github.com/gchq/CyberChef/wiki/Automatic-detection-of-encoded-data-using-CyberChef-Magic",
			InputType:   dish.ArrayBuffer,
			OutputType:  dish.JSON,
			FlowControl: true,
			Args: []operation.ArgSpec{
				{Name: "Depth", Type: operation.ArgNumber, Default: ir.IRInt(3)},
				{Name: "Intensive mode", Type: operation.ArgBoolean, Default: ir.IRBool(false)},
				{Name: "Extensive language support", Type: operation.ArgBoolean, Default: ir.IRBool(false)},
				{Name: "Crib (known plaintext string or regex)", Type: operation.ArgString, Default: ir.IRString("")},
			},
		},
	}
}
