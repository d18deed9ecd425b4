package echoapi

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/importing"
)

const (
	uploadField    = "csvFile"
	csvContentType = "text/csv"
)

type csvUpload struct {
	Filename    string `json:"csvFile" validate:"required,csvfile"`
	ContentType string `json:"-"`
	Size        int64  `json:"-"`
}

// Validate accepts `.csv` files and anything sent as text/csv, up to maxSize bytes.
func (u csvUpload) Validate(validate *validator.Validate, maxSize int64) error {
	if mediaType, _, err := mime.ParseMediaType(u.ContentType); err != nil || mediaType != csvContentType {
		if err := validate.Struct(u); err != nil {
			return err
		}
	}
	if maxSize > 0 && u.Size > maxSize {
		return core.NewValidationError(nil, core.FieldError{
			Field: uploadField,
			Error: fmt.Sprintf("file is too large (max %d bytes)", maxSize),
		})
	}
	return nil
}

type importApi struct {
	conf     *core.Config
	logger   core.Logger
	svc      *importing.Service
	store    core.DocumentStore
	validate *validator.Validate
}

func registerImportAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := importApi{
		conf:     deps.Conf,
		logger:   deps.Logger,
		svc:      deps.ImportSvc,
		store:    deps.Store,
		validate: deps.Validate,
	}

	for _, kind := range api.svc.Kinds() {
		kg := g.Group("/"+kind, jwt)
		roles := rolesMiddleware(rolesFor(kind)...)

		kg.POST("/bulk-upload", api.bulkUpload(kind), roles, middleware.BodyLimit(api.conf.Import.BodyLimit))
		kg.GET("/csv-template", api.csvTemplate(kind), roles)
		kg.GET("", api.query(kind))
		kg.GET("/:id", api.retrieve(kind))
	}
}

// Handlers

func (api *importApi) bulkUpload(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}

		fh, err := ctx.FormFile(uploadField)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: uploadField, Error: "this field is required"})
		}
		upload := csvUpload{Filename: fh.Filename, ContentType: fh.Header.Get(echo.HeaderContentType), Size: fh.Size}
		if err = upload.Validate(api.validate, api.conf.Import.MaxUploadSize); err != nil {
			return err
		}

		path, err := api.save(fh)
		if err != nil {
			return errors.Wrap(err, "saving upload")
		}

		meta := importing.Meta{Actor: claims.Subject, ActorName: claims.Name, Now: time.Now().UTC()}
		out, err := api.svc.ImportFile(ctx.Request().Context(), kind, path, meta)
		if err != nil {
			return errors.Wrapf(err, "importing %s", kind)
		}
		return ctx.JSON(http.StatusOK, out)
	}
}

func (api *importApi) csvTemplate(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		filename, content, err := api.svc.Template(kind)
		if err != nil {
			return errors.Wrap(err, "building template")
		}
		ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
		return ctx.Blob(http.StatusOK, csvContentType, content)
	}
}

func (api *importApi) query(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var qf QueryFilter
		if err := qf.Bind(ctx); err != nil {
			return err
		}
		docs, err := api.store.Find(ctx.Request().Context(), kind, qf.Filter)
		if err != nil {
			return errors.Wrapf(err, "querying %s", kind)
		}
		if docs == nil {
			docs = []core.Document{}
		}
		return ctx.JSON(http.StatusOK, docs)
	}
}

func (api *importApi) retrieve(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, ok := importing.CanonicalID(ctx.Param("id"))
		if !ok {
			return errHttpNotFound
		}
		docs, err := api.store.Find(ctx.Request().Context(), kind, core.Where(core.Eq{Field: core.IDField, Value: id}))
		if err != nil {
			return errors.Wrapf(err, "finding %s", kind)
		}
		if len(docs) == 0 {
			return errors.Wrap(core.ErrNotFound, id)
		}
		return ctx.JSON(http.StatusOK, docs[0])
	}
}

// save copies the upload into a temp file of the upload dir; ImportFile removes it.
func (api *importApi) save(fh *multipart.FileHeader) (path string, err error) {
	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening upload")
	}
	defer src.Close()

	dir := api.conf.Import.UploadDir
	if err = os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.Wrap(err, "creating upload dir")
	}
	dst, err := os.CreateTemp(dir, "upload-*.csv")
	if err != nil {
		return "", errors.Wrap(err, "creating temp file")
	}
	defer func() {
		if cErr := dst.Close(); err == nil && cErr != nil {
			err = errors.Wrap(cErr, "closing temp file")
		}
		if err != nil {
			_ = os.Remove(dst.Name())
			path = ""
		}
	}()

	if _, err = io.Copy(dst, src); err != nil {
		return "", errors.Wrap(err, "copying upload")
	}
	return dst.Name(), nil
}
