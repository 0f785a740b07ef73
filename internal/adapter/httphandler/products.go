package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/shopspring/decimal"
)

// DefaultMaxUpload bounds the multipart body of product requests.
const DefaultMaxUpload = 10 << 20

var errInvalidForm = errors.New("invalid form data")

type ProductsHandler struct {
	catalog   port.Catalog
	maxUpload int64
}

func RegisterProducts(mux *http.ServeMux, catalog port.Catalog) {
	h := ProductsHandler{catalog: catalog, maxUpload: DefaultMaxUpload}
	allow := AllowMedia(MediaJSON, MediaMultipart)

	mux.HandleFunc("GET /api/products", h.List)
	mux.HandleFunc("GET /api/products/{id}", h.Get)
	mux.Handle("POST /api/products", allow(http.HandlerFunc(h.Create)))
	mux.Handle("PUT /api/products/{id}", allow(http.HandlerFunc(h.Update)))
	mux.HandleFunc("DELETE /api/products/{id}", h.Delete)
}

// RegisterUploads serves stored product images.
func RegisterUploads(mux *http.ServeMux, prefix string, files http.Handler) {
	mux.Handle("GET "+prefix+"/", http.StripPrefix(prefix+"/", files))
}

func (h ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.List"
	log := slog.With("op", op)

	ps, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		writeFailure(w, log, err)
		return
	}
	writeData(w, http.StatusOK, productsFromDomain(ps))
}

func (h ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Get"
	log := slog.With("op", op)

	p, err := h.catalog.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, log, err)
		return
	}
	writeData(w, http.StatusOK, productFromDomain(p))
}

func (h ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Create"
	log := slog.With("op", op)

	in, image, err := h.readInput(w, r)
	if err != nil {
		log.Warn("failed to parse request", "err", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer closeImage(image)

	p, err := h.catalog.CreateProduct(r.Context(), in.toProduct(), image)
	if err != nil {
		writeFailure(w, log, err)
		return
	}

	log.Info("product created", "id", p.ID)
	writeData(w, http.StatusCreated, productFromDomain(p))
}

func (h ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Update"
	log := slog.With("op", op)

	in, image, err := h.readInput(w, r)
	if err != nil {
		log.Warn("failed to parse request", "err", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer closeImage(image)

	p, err := h.catalog.UpdateProduct(
		r.Context(), r.PathValue("id"), in.toPatch(), image,
	)
	if err != nil {
		writeFailure(w, log, err)
		return
	}

	log.Info("product updated", "id", p.ID)
	writeData(w, http.StatusOK, productFromDomain(p))
}

func (h ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Delete"
	log := slog.With("op", op)

	id := r.PathValue("id")
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		writeFailure(w, log, err)
		return
	}

	log.Info("product deleted", "id", id)
	writeData(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// readInput decodes a JSON body, or a multipart form with
// an optional "image" file.
func (h ProductsHandler) readInput(
	w http.ResponseWriter, r *http.Request,
) (ProductInput, *domain.ImageUpload, error) {
	var in ProductInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != MediaMultipart {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return in, nil, errors.New("invalid JSON data")
		}
		return in, nil, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return in, nil, errInvalidForm
	}

	in, err := inputFromForm(r.MultipartForm)
	if err != nil {
		return in, nil, err
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, nil
	}
	if err != nil {
		return in, nil, errInvalidForm
	}
	return in, &domain.ImageUpload{Filename: header.Filename, Content: file}, nil
}

func closeImage(image *domain.ImageUpload) {
	if image == nil {
		return
	}
	if c, ok := image.Content.(io.Closer); ok {
		_ = c.Close()
	}
}

func inputFromForm(form *multipart.Form) (in ProductInput, err error) {
	value := func(key string) (string, bool) {
		vs, ok := form.Value[key]
		if !ok || len(vs) == 0 {
			return "", false
		}
		return vs[0], true
	}

	str := func(key string) *string {
		if v, ok := value(key); ok {
			return &v
		}
		return nil
	}

	in.Name = str("name")
	in.Description = str("description")
	in.Category = str("category")
	in.Image = str("image")

	if in.Price, err = formDecimal(value, "price"); err != nil {
		return in, err
	}
	if in.OldPrice, err = formDecimal(value, "old_price"); err != nil {
		return in, err
	}
	if in.Rating, err = formParse(value, "rating", func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	}); err != nil {
		return in, err
	}
	if in.Stock, err = formParse(value, "stock", strconv.Atoi); err != nil {
		return in, err
	}
	if in.IsNew, err = formParse(value, "is_new", strconv.ParseBool); err != nil {
		return in, err
	}
	if in.IsPromo, err = formParse(value, "is_promo", strconv.ParseBool); err != nil {
		return in, err
	}
	return in, nil
}

func formDecimal(
	value func(string) (string, bool), key string,
) (*decimal.Decimal, error) {
	return formParse(value, key, decimal.NewFromString)
}

func formParse[T any](
	value func(string) (string, bool), key string, parse func(string) (T, error),
) (*T, error) {
	s, ok := value(key)
	if !ok || s == "" {
		return nil, nil
	}
	v, err := parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errInvalidForm, key)
	}
	return &v, nil
}
