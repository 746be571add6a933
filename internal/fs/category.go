package fs

// Category is the viewer's content class for an entry.
type Category string

const (
	CategoryText   Category = "text"
	CategoryImage  Category = "image"
	CategoryVideo  Category = "video"
	CategoryPDF    Category = "pdf"
	CategoryBinary Category = "binary"
)

var imageExtensions = map[string]struct{}{
	".apng": {},
	".avif": {},
	".bmp":  {},
	".gif":  {},
	".ico":  {},
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".svg":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
}

var videoExtensions = map[string]struct{}{
	".avi":  {},
	".m4v":  {},
	".mkv":  {},
	".mov":  {},
	".mp4":  {},
	".mpeg": {},
	".mpg":  {},
	".ogv":  {},
	".webm": {},
}

// Extensions that are never rendered as text. Anything not listed here or in
// the media tables is treated as text and confirmed by sniffing once fetched.
var binaryExtensions = map[string]struct{}{
	".7z":    {},
	".a":     {},
	".apk":   {},
	".bin":   {},
	".bz2":   {},
	".class": {},
	".dat":   {},
	".db":    {},
	".deb":   {},
	".dll":   {},
	".doc":   {},
	".docx":  {},
	".dylib": {},
	".exe":   {},
	".flac":  {},
	".gz":    {},
	".iso":   {},
	".jar":   {},
	".mp3":   {},
	".o":     {},
	".ogg":   {},
	".otf":   {},
	".ppt":   {},
	".pptx":  {},
	".psd":   {},
	".rpm":   {},
	".so":    {},
	".tar":   {},
	".tgz":   {},
	".ttf":   {},
	".wav":   {},
	".wasm":  {},
	".woff":  {},
	".woff2": {},
	".xls":   {},
	".xlsx":  {},
	".xz":    {},
	".zip":   {},
	".zst":   {},
}

// CategoryOf classifies a file name by extension.
func CategoryOf(name string) Category {
	ext := Ext(name)
	if ext == ".pdf" {
		return CategoryPDF
	}
	if _, ok := imageExtensions[ext]; ok {
		return CategoryImage
	}
	if _, ok := videoExtensions[ext]; ok {
		return CategoryVideo
	}
	if _, ok := binaryExtensions[ext]; ok {
		return CategoryBinary
	}
	return CategoryText
}

// Editable reports whether content of this category can be edited in place.
func (c Category) Editable() bool {
	return c == CategoryText
}
