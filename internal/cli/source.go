package cli

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/phambaophuc/image-normalizer/internal/services/processor"
)

// openSource opens path as a processor source. The media type is sniffed
// from the content and falls back to the extension.
func openSource(path string) (*processor.SourceImage, func() error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, nil, fmt.Errorf("%s is a directory", path)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		file.Close()
		return nil, nil, err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, nil, err
	}

	mediaType, _, err := mime.ParseMediaType(http.DetectContentType(head[:n]))
	if err != nil || mediaType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
			mediaType, _, _ = mime.ParseMediaType(byExt)
		}
	}

	return &processor.SourceImage{
		Filename:  filepath.Base(path),
		MediaType: mediaType,
		Size:      info.Size(),
		Reader:    file,
	}, file.Close, nil
}
