package contacts

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/cache"
	"github.com/keyxmakerx/mailroom/internal/progress"
	"github.com/keyxmakerx/mailroom/internal/validate"
)

const cacheResource = "contacts"

// allPageLimit is the page size used when walking every contact.
const allPageLimit = 100

// ContactStore is the backend surface this plugin needs.
// *backend.ContactsService satisfies it.
type ContactStore interface {
	List(ctx context.Context, opts backend.ContactListOptions) (backend.Page[backend.Contact], error)
	Create(ctx context.Context, in backend.ContactInput) (*backend.Contact, error)
	Update(ctx context.Context, id string, in backend.ContactInput) (*backend.Contact, error)
	Delete(ctx context.Context, id string) error
	Upload(ctx context.Context, filename string, file io.Reader, progress backend.ProgressFunc) (*backend.ImportResult, error)
}

// ContactService is the contact business logic.
type ContactService interface {
	List(ctx context.Context, q ListQuery) (backend.Page[backend.Contact], error)
	All(ctx context.Context) ([]backend.Contact, error)
	Create(ctx context.Context, form ContactForm) (*backend.Contact, error)
	Update(ctx context.Context, id string, form ContactForm) (*backend.Contact, error)
	Delete(ctx context.Context, id string) error
	CheckUpload(filename string, size int64) error
	Import(ctx context.Context, filename string, size int64, file io.Reader, report func(percent int)) (*ImportSummary, error)
}

// ImportLimits bound what Import accepts.
type ImportLimits struct {
	MaxSize    int64
	Extensions []string
}

type contactService struct {
	store    ContactStore
	cache    *cache.Cache
	pageSize int
	limits   ImportLimits
}

// NewContactService creates a contact service. cache may be nil.
func NewContactService(store ContactStore, c *cache.Cache, pageSize int, limits ImportLimits) ContactService {
	if pageSize < 1 {
		pageSize = 10
	}
	return &contactService{store: store, cache: c, pageSize: pageSize, limits: limits}
}

// List returns one page of contacts matching q.Search.
func (s *contactService) List(ctx context.Context, q ListQuery) (backend.Page[backend.Contact], error) {
	if q.Page < 1 {
		q.Page = 1
	}
	opts := backend.ContactListOptions{Page: q.Page, Limit: s.pageSize, Search: strings.TrimSpace(q.Search)}

	page, err := cache.Fetch(ctx, s.cache, cacheResource, opts.Query(), func(ctx context.Context) (backend.Page[backend.Contact], error) {
		return s.store.List(ctx, opts)
	})
	if err != nil {
		return page, apperror.FromBackend(err, "Failed to load contacts")
	}
	if page.Page == 0 {
		page.Page = q.Page
	}
	return page, nil
}

// All walks every page of the contact list. Used where the operator picks
// recipients.
func (s *contactService) All(ctx context.Context) ([]backend.Contact, error) {
	all, err := cache.Fetch(ctx, s.cache, cacheResource, url.Values{"all": {"1"}}, func(ctx context.Context) ([]backend.Contact, error) {
		var out []backend.Contact
		for p := 1; ; p++ {
			page, err := s.store.List(ctx, backend.ContactListOptions{Page: p, Limit: allPageLimit})
			if err != nil {
				return nil, err
			}
			out = append(out, page.Items...)
			if !page.HasNext() || len(page.Items) == 0 {
				return out, nil
			}
		}
	})
	if err != nil {
		return nil, apperror.FromBackend(err, "Failed to load contacts")
	}
	return all, nil
}

func (s *contactService) Create(ctx context.Context, form ContactForm) (*backend.Contact, error) {
	in, err := toInput(form)
	if err != nil {
		return nil, err
	}
	c, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, apperror.FromBackend(err, "Failed to save contact")
	}
	s.cache.Invalidate(ctx, cacheResource)
	return c, nil
}

func (s *contactService) Update(ctx context.Context, id string, form ContactForm) (*backend.Contact, error) {
	in, err := toInput(form)
	if err != nil {
		return nil, err
	}
	c, err := s.store.Update(ctx, id, in)
	if err != nil {
		return nil, apperror.FromBackend(err, "Failed to save contact")
	}
	s.cache.Invalidate(ctx, cacheResource)
	return c, nil
}

func (s *contactService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return apperror.FromBackend(err, "Failed to delete contact")
	}
	s.cache.Invalidate(ctx, cacheResource)
	return nil
}

// CheckUpload rejects files by extension and size before anything is sent.
func (s *contactService) CheckUpload(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	allowed := false
	for _, e := range s.limits.Extensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return apperror.NewValidation("Invalid file type. Please upload a " + extensionList(s.limits.Extensions) + " file")
	}
	if s.limits.MaxSize > 0 && size > s.limits.MaxSize {
		return fileTooLarge(s.limits.MaxSize)
	}
	if size == 0 {
		return apperror.NewValidation("The selected file is empty")
	}
	return nil
}

func fileTooLarge(max int64) error {
	return apperror.NewValidation("File too large. Please upload a file smaller than " + humanize.IBytes(uint64(max)))
}

// Import checks the file, uploads it and summarises the backend's answer.
// report receives upload percentages held below 100 until the backend
// answers; the caller reports completion.
func (s *contactService) Import(ctx context.Context, filename string, size int64, file io.Reader, report func(percent int)) (*ImportSummary, error) {
	if err := s.CheckUpload(filename, size); err != nil {
		return nil, err
	}

	last := -1
	result, err := s.store.Upload(ctx, filename, file, func(sent, total int64) {
		if p := progress.UploadPercent(sent, total); p != last {
			last = p
			if report != nil {
				report(p)
			}
		}
	})
	if err != nil {
		return nil, apperror.FromBackend(err, "Upload failed. Please try again")
	}

	if result.Imported > 0 {
		s.cache.Invalidate(ctx, cacheResource)
	}
	return Summarize(result), nil
}

// Summarize turns an import result into the notice shown to the operator.
// Rows rejected with nothing imported is a total failure: no refresh.
func Summarize(r *backend.ImportResult) *ImportSummary {
	sum := &ImportSummary{Result: r}
	errCount := len(r.Errors)

	if errCount > 0 {
		sum.Warning = true
		sum.Message = fmt.Sprintf("Imported: %d, Errors: %d", r.Imported, errCount)
	} else {
		sum.Message = "Imported " + strconv.Itoa(r.Imported) + " contacts"
		if r.Duplicates > 0 {
			sum.Message += fmt.Sprintf(", %d duplicates skipped", r.Duplicates)
		}
	}
	sum.Refresh = r.Imported > 0 || errCount == 0
	return sum
}

func toInput(form ContactForm) (backend.ContactInput, error) {
	form.trim()
	if errs := validate.Struct(form, validate.Messages{
		"email.email": "Please enter a valid email address",
		"name.min":    "Name must be at least 2 characters",
	}); errs != nil {
		return backend.ContactInput{}, apperror.NewFieldValidation(errs)
	}
	return backend.ContactInput{
		Email:        form.Email,
		Name:         form.Name,
		Organization: form.Organization,
		Tags:         ParseTags(form.Tags),
	}, nil
}

func extensionList(exts []string) string {
	switch len(exts) {
	case 0:
		return "supported"
	case 1:
		return exts[0]
	}
	return strings.Join(exts[:len(exts)-1], ", ") + " or " + exts[len(exts)-1]
}
