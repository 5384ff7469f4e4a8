package forms

import (
	"slices"
	"strconv"
	"strings"

	"grledger/internal/core"
)

// Brief text fields. Status flags and sliders are addressed as
// "status.<flag>" and "sliders.<axis>".
const (
	FieldNamaLogo       = "namaLogo"
	FieldSlogan         = "slogan"
	FieldJenisUsaha     = "jenisUsaha"
	FieldDeadline       = "deadline"
	FieldPemilihanPaket = "pemilihanPaket"
	FieldLunasAmount    = "lunasAmount"
	FieldJenisLogo      = "jenisLogo"
	FieldDominanColor   = "dominanColor"
	FieldKonsepDetail   = "konsepDetail"
	FieldClientColor    = "clientColor"
	FieldCatatan        = "catatan"
	FieldPembuatBrief   = "pembuatBrief"
)

type BriefForm struct {
	settings
	original *core.DesignBrief
	draft    core.DesignBrief
}

// NewBriefForm creates a controller in create mode authored by author.
func NewBriefForm(author string, opts ...Option) *BriefForm {
	f := &BriefForm{settings: newSettings(opts)}
	f.Load(nil, author)
	return f
}

// Load resets the draft. In create mode every flag is off, every slider sits
// at 5, the package is GOLD and author is recorded as the brief's maker.
func (f *BriefForm) Load(initial *core.DesignBrief, author string) {
	if initial != nil {
		orig := *initial
		f.original = &orig
		f.draft = orig
		f.draft.KebutuhanLogo = slices.Clone(initial.KebutuhanLogo)
		f.draft.Referensi = slices.Clone(initial.Referensi)
		return
	}
	f.original = nil
	f.draft = core.DesignBrief{
		PemilihanPaket: core.PackageGold,
		KebutuhanLogo:  []string{},
		Sliders:        core.DefaultSliders(),
		Referensi:      []string{},
		PembuatBrief:   author,
	}
}

func (f *BriefForm) Editing() bool { return f.original != nil }

// Draft returns a copy of the staged brief.
func (f *BriefForm) Draft() core.DesignBrief {
	d := f.draft
	d.KebutuhanLogo = slices.Clone(f.draft.KebutuhanLogo)
	d.Referensi = slices.Clone(f.draft.Referensi)
	return d
}

func (f *BriefForm) Update(field, value string) error {
	if flag, ok := strings.CutPrefix(field, "status."); ok {
		on, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return invalid(field, err)
		}
		return f.SetStatus(core.StatusFlag(flag), on)
	}
	if axis, ok := strings.CutPrefix(field, "sliders."); ok {
		v, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return invalid(field, core.ErrSliderRange)
		}
		return f.SetSlider(core.SliderAxis(axis), v)
	}

	d := &f.draft
	switch field {
	case FieldNamaLogo:
		d.NamaLogo = value
	case FieldSlogan:
		d.Slogan = value
	case FieldJenisUsaha:
		d.JenisUsaha = value
	case FieldDeadline:
		d.Deadline = value
	case FieldPemilihanPaket:
		p := core.Package(strings.ToUpper(strings.TrimSpace(value)))
		if !p.Valid() {
			return invalid(field, core.ErrInvalidPackage)
		}
		d.PemilihanPaket = p
	case FieldLunasAmount:
		d.LunasAmount = value
	case FieldJenisLogo:
		d.JenisLogo = value
	case FieldDominanColor:
		d.DominanColor = value
	case FieldKonsepDetail:
		d.KonsepDetail = value
	case FieldClientColor:
		d.ClientColor = value
	case FieldCatatan:
		d.Catatan = value
	case FieldPembuatBrief:
		d.PembuatBrief = value
	default:
		return invalid(field, ErrUnknownField)
	}
	return nil
}

func (f *BriefForm) SetStatus(flag core.StatusFlag, on bool) error {
	if err := f.draft.Status.Set(flag, on); err != nil {
		return invalid("status."+string(flag), err)
	}
	return nil
}

func (f *BriefForm) SetSlider(axis core.SliderAxis, v int) error {
	if err := f.draft.Sliders.Set(axis, v); err != nil {
		return invalid("sliders."+string(axis), err)
	}
	return nil
}

// ToggleNeed flips membership of tag in kebutuhanLogo.
func (f *BriefForm) ToggleNeed(tag string) {
	f.draft.ToggleNeed(tag)
}

// SetNeeds replaces the selected tags, dropping blanks and duplicates.
func (f *BriefForm) SetNeeds(tags []string) {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	f.draft.KebutuhanLogo = out
}

// AddReference appends an image data URL.
func (f *BriefForm) AddReference(dataURL string) error {
	if !strings.HasPrefix(dataURL, "data:image/") {
		return invalid("referensi", ErrBadReference)
	}
	f.draft.Referensi = append(f.draft.Referensi, dataURL)
	return nil
}

// SetReferences replaces the reference list. Nothing changes when any entry
// is not an image data URL.
func (f *BriefForm) SetReferences(refs []string) error {
	for _, r := range refs {
		if !strings.HasPrefix(r, "data:image/") {
			return invalid("referensi", ErrBadReference)
		}
	}
	f.draft.Referensi = slices.Clone(refs)
	if f.draft.Referensi == nil {
		f.draft.Referensi = []string{}
	}
	return nil
}

// RemoveReference drops the i-th reference image.
func (f *BriefForm) RemoveReference(i int) error {
	if i < 0 || i >= len(f.draft.Referensi) {
		return invalid("referensi", ErrUnknownField)
	}
	f.draft.Referensi = slices.Delete(f.draft.Referensi, i, i+1)
	return nil
}

// Submit returns the finalized brief. Editing keeps id and createdAt.
func (f *BriefForm) Submit() (core.DesignBrief, error) {
	b := f.Draft()
	if b.KebutuhanLogo == nil {
		b.KebutuhanLogo = []string{}
	}
	if b.Referensi == nil {
		b.Referensi = []string{}
	}
	if f.original != nil {
		b.ID = f.original.ID
		b.CreatedAt = f.original.CreatedAt
	} else {
		b.ID = f.newID()
		b.CreatedAt = f.now().UTC()
	}
	if err := b.Validate(); err != nil {
		return core.DesignBrief{}, invalid("brief", err)
	}
	return b, nil
}
