package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"jellyarcade/internal/models"
)

const (
	// maxUploadSize is the maximum accepted image size (10 MB).
	maxUploadSize = 10 << 20

	// maxBodySize caps JSON request bodies.
	maxBodySize = 1 << 20

	// dataField is the multipart part carrying the JSON body of an upload.
	dataField = "data"
)

// allowedImageTypes are the sniffed MIME types accepted for upload.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// requestError is a malformed or invalid request. It is always answered
// with 400.
type requestError struct {
	msg    string
	fields map[string]string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// checkStruct runs the validator and converts its failures to a
// requestError keyed by JSON field path.
func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fe.Tag()
	}
	return &requestError{msg: "validation failed", fields: fields}
}

// fieldPath drops the struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// bind decodes a JSON body into dst and validates it.
func bind(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		return badRequest("invalid request body")
	}
	return checkStruct(dst)
}

// formBinder is a request body that can also be read from multipart form
// fields.
type formBinder interface {
	fillForm(f form) error
}

// bindUpload decodes an image-bearing request. Multipart requests carry the
// fields either as a JSON "data" part or as individual form fields, plus an
// optional file under field. Other requests are decoded as JSON and carry
// no image.
func bindUpload(w http.ResponseWriter, r *http.Request, dst formBinder, field string) ([]byte, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, bind(w, r, dst)
	}

	if err := parseMultipart(w, r); err != nil {
		return nil, err
	}

	f := form(r.MultipartForm.Value)
	if raw := f.text(dataField); raw != "" {
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			return nil, badRequest("invalid %s field", dataField)
		}
	} else if err := dst.fillForm(f); err != nil {
		return nil, err
	}
	if err := checkStruct(dst); err != nil {
		return nil, err
	}
	return readImage(r, field)
}

// parseMultipart reads a multipart body of at most maxUploadSize plus room
// for the text fields.
func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+maxBodySize)
	err := r.ParseMultipartForm(maxUploadSize)
	if errors.Is(err, http.ErrNotMultipart) {
		return badRequest("multipart form data required")
	}
	if err != nil {
		return badRequest("file too large, maximum size is 10 MB")
	}
	return nil
}

// readImage returns the uploaded file under field, or nil when none was sent.
func readImage(r *http.Request, field string) ([]byte, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, badRequest("invalid %s upload", field)
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		return nil, badRequest("file too large, maximum size is 10 MB")
	}
	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) > maxUploadSize {
		return nil, badRequest("file too large, maximum size is 10 MB")
	}
	// Sniff the content instead of trusting the part header.
	if ct := http.DetectContentType(data); !allowedImageTypes[ct] {
		return nil, badRequest("unsupported image type %s", ct)
	}
	return data, nil
}

// form reads the flat multipart field names used by the admin panel:
// "name.tr", "keywords.en", "isActive" and so on.
type form url.Values

func (f form) text(key string) string {
	if v := f[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func (f form) localized(prefix string) models.Localized {
	return models.Localized{TR: f.text(prefix + ".tr"), EN: f.text(prefix + ".en")}
}

// keywords reads a keyword list for both locales. Each locale accepts a
// JSON array, a comma separated string or repeated fields.
func (f form) keywords(prefix string) (keywordsInput, error) {
	var out keywordsInput
	var err error
	if out.TR, err = f.strings(prefix + ".tr"); err != nil {
		return out, err
	}
	if out.EN, err = f.strings(prefix + ".en"); err != nil {
		return out, err
	}
	return out, nil
}

func (f form) strings(key string) ([]string, error) {
	values, ok := f[key]
	if !ok {
		return nil, nil
	}
	out := []string{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "[") {
			var items []string
			if err := json.Unmarshal([]byte(v), &items); err != nil {
				return nil, badRequest("invalid %s field", key)
			}
			out = append(out, items...)
			continue
		}
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out, nil
}

func (f form) flag(key string) (*bool, error) {
	raw := f.text(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, badRequest("invalid %s field", key)
	}
	return &v, nil
}

// flags reads the boolean fields named by the keys of dst. Absent fields
// leave their pointer nil.
func (f form) flags(dst map[string]**bool) error {
	for key, ptr := range dst {
		v, err := f.flag(key)
		if err != nil {
			return err
		}
		*ptr = v
	}
	return nil
}

func (f form) id(key string) (*uuid.UUID, error) {
	raw := f.text(key)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, badRequest("invalid %s field", key)
	}
	return &id, nil
}

// ids reads a list of ids sent as repeated fields, "key[]" fields, a JSON
// array or a comma separated string.
func (f form) ids(key string) ([]uuid.UUID, error) {
	raw, err := f.strings(key)
	if err != nil {
		return nil, err
	}
	more, err := f.strings(key + "[]")
	if err != nil {
		return nil, err
	}
	raw = append(raw, more...)
	if raw == nil {
		return nil, nil
	}
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, badRequest("invalid %s field", key)
		}
		out = append(out, id)
	}
	return out, nil
}

// pathID parses the {id} URL parameter, or another named one.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, badRequest("invalid %s", name)
	}
	return id, nil
}

// localeOf returns the locale requested with ?lang.
func localeOf(r *http.Request) models.Locale {
	return models.ParseLocale(r.URL.Query().Get("lang"))
}
