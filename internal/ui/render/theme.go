package render

import "github.com/gdamore/tcell/v2"

// ColorTheme defines application colors.
type ColorTheme struct {
	Background  tcell.Color
	Foreground  tcell.Color
	HeaderBg    tcell.Color
	HeaderFg    tcell.Color
	SelectionBg tcell.Color
	SelectionFg tcell.Color
	MarkedFg    tcell.Color
	DirectoryFg tcell.Color
	FileFg      tcell.Color
	HiddenFg    tcell.Color
	DimFg       tcell.Color
	MatchFg     tcell.Color
	FooterBg    tcell.Color
	FooterFg    tcell.Color
	AlertBg     tcell.Color
	AlertFg     tcell.Color
	WarnFg      tcell.Color
	ErrorFg     tcell.Color
	SuccessFg   tcell.Color
	GutterFg    tcell.Color
}

// GetColorTheme returns the default color scheme.
func GetColorTheme() ColorTheme {
	return ColorTheme{
		Background:  tcell.ColorDefault,
		Foreground:  tcell.ColorDefault,
		HeaderBg:    tcell.ColorDefault,
		HeaderFg:    tcell.ColorDefault,
		SelectionBg: tcell.Color33,
		SelectionFg: tcell.ColorWhite,
		MarkedFg:    tcell.Color214,
		DirectoryFg: tcell.Color33,
		FileFg:      tcell.ColorDefault,
		HiddenFg:    tcell.ColorLightSlateGray,
		DimFg:       tcell.Color244,
		MatchFg:     tcell.Color220,
		FooterBg:    tcell.ColorDefault,
		FooterFg:    tcell.ColorDefault,
		AlertBg:     tcell.Color124,
		AlertFg:     tcell.ColorWhite,
		WarnFg:      tcell.Color214,
		ErrorFg:     tcell.Color196,
		SuccessFg:   tcell.Color70,
		GutterFg:    tcell.Color240,
	}
}
