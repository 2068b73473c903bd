package codec

import (
	"context"
	"fmt"

	"repoexplorer/internal/domain"
	"repoexplorer/internal/repository"
)

var portableTypes = map[repository.PropertyType]domain.PropertyType{
	repository.TypeUndefined:     domain.PropertyTypeUndefined,
	repository.TypeString:        domain.PropertyTypeString,
	repository.TypeBinary:        domain.PropertyTypeBinary,
	repository.TypeLong:          domain.PropertyTypeLong,
	repository.TypeDouble:        domain.PropertyTypeDouble,
	repository.TypeDate:          domain.PropertyTypeDate,
	repository.TypeBoolean:       domain.PropertyTypeBoolean,
	repository.TypeName:          domain.PropertyTypeName,
	repository.TypePath:          domain.PropertyTypePath,
	repository.TypeReference:     domain.PropertyTypeReference,
	repository.TypeWeakReference: domain.PropertyTypeWeakReference,
	repository.TypeURI:           domain.PropertyTypeURI,
	repository.TypeDecimal:       domain.PropertyTypeDecimal,
}

var nativeTypes = map[domain.PropertyType]repository.PropertyType{
	domain.PropertyTypeBoolean: repository.TypeBoolean,
	domain.PropertyTypeDate:    repository.TypeDate,
	domain.PropertyTypeDecimal: repository.TypeDecimal,
	domain.PropertyTypeDouble:  repository.TypeDouble,
	domain.PropertyTypeLong:    repository.TypeLong,
	domain.PropertyTypeString:  repository.TypeString,
}

// PortableType names a native type tag
func PortableType(t repository.PropertyType) domain.PropertyType {
	if pt, ok := portableTypes[t]; ok {
		return pt
	}
	return domain.PropertyTypeUndefined
}

// NativeType returns the native tag of a writable portable type
func NativeType(t domain.PropertyType) (repository.PropertyType, bool) {
	nt, ok := nativeTypes[t]
	return nt, ok
}

// ToPortable converts a stored property. Values of unsupported types carry
// their type name only; binary payloads are never inlined.
func ToPortable(p repository.Property) (domain.PropertyValue, error) {
	pv := domain.PropertyValue{
		Name:        p.Name(),
		Type:        PortableType(p.Type()),
		MultiValued: p.IsMultiple(),
		ReadOnly:    p.IsProtected(),
	}

	values := p.Values()
	pv.Values = make([]domain.TypedScalar, 0, len(values))
	for _, v := range values {
		s, err := scalarOf(v)
		if err != nil {
			return domain.PropertyValue{}, fmt.Errorf("property %s: %w", p.Name(), err)
		}
		pv.Values = append(pv.Values, s)
	}
	return pv, nil
}

func scalarOf(v repository.Value) (domain.TypedScalar, error) {
	switch v.Type() {
	case repository.TypeBoolean:
		b, err := v.Boolean()
		if err != nil {
			return domain.TypedScalar{}, err
		}
		return domain.BooleanScalar(b), nil
	case repository.TypeDate:
		d, err := v.Date()
		if err != nil {
			return domain.TypedScalar{}, err
		}
		return domain.DateScalar(d), nil
	case repository.TypeDecimal:
		d, err := v.Decimal()
		if err != nil {
			return domain.TypedScalar{}, err
		}
		return domain.DecimalScalar(d), nil
	case repository.TypeDouble:
		f, err := v.Double()
		if err != nil {
			return domain.TypedScalar{}, err
		}
		return domain.DoubleScalar(f), nil
	case repository.TypeLong:
		i, err := v.Long()
		if err != nil {
			return domain.TypedScalar{}, err
		}
		return domain.LongScalar(i), nil
	case repository.TypeString:
		return domain.StringScalar(v.String()), nil
	}
	return domain.TypedScalar{PropertyType: PortableType(v.Type())}, nil
}

// ToNative writes pv onto node under name. Multi-valued properties are
// rebuilt from each scalar's string form; single values dispatch on the
// declared type to the typed setter.
func ToNative(ctx context.Context, node repository.Node, name string, pv domain.PropertyValue) error {
	const op = "marshal property"

	nt, ok := NativeType(pv.Type)
	if !ok {
		return domain.Unsupported(op, pv.Type)
	}

	if pv.MultiValued {
		values := make([]repository.Value, 0, len(pv.Values))
		for i, s := range pv.Values {
			lexical, ok := s.Lexical(pv.Type)
			if !ok {
				return domain.Invalid(op, fmt.Sprintf("value %d of %s has no %s representation", i, name, pv.Type))
			}
			v, err := repository.NewValue(nt, lexical)
			if err != nil {
				return &domain.Error{Kind: domain.ErrInvalidArgument, Op: op, Message: "invalid value for " + name, Err: err}
			}
			values = append(values, v)
		}
		if err := node.SetPropertyValues(ctx, name, nt, values); err != nil {
			return fmt.Errorf("failed to set property %s: %w", name, err)
		}
		return nil
	}

	if len(pv.Values) != 1 {
		return domain.Invalid(op, fmt.Sprintf("single-valued property %s needs exactly one value, got %d", name, len(pv.Values)))
	}
	v, err := singleValue(pv.Type, pv.Values[0])
	if err != nil {
		return err
	}
	if err := node.SetProperty(ctx, name, v); err != nil {
		return fmt.Errorf("failed to set property %s: %w", name, err)
	}
	return nil
}

func singleValue(t domain.PropertyType, s domain.TypedScalar) (repository.Value, error) {
	const op = "marshal property"
	missing := func() (repository.Value, error) {
		return repository.Value{}, domain.Invalid(op, fmt.Sprintf("%s value is missing", t))
	}

	switch t {
	case domain.PropertyTypeBoolean:
		if s.BooleanValue == nil {
			return missing()
		}
		return repository.BooleanValue(*s.BooleanValue), nil
	case domain.PropertyTypeDate:
		if s.DateValue == nil {
			return missing()
		}
		return repository.DateValue(*s.DateValue), nil
	case domain.PropertyTypeDecimal:
		if s.DecimalValue == nil {
			return missing()
		}
		v, err := repository.DecimalValue(s.DecimalValue.String())
		if err != nil {
			return repository.Value{}, &domain.Error{Kind: domain.ErrInvalidArgument, Op: op, Message: "invalid decimal", Err: err}
		}
		return v, nil
	case domain.PropertyTypeDouble:
		if s.DoubleValue == nil {
			return missing()
		}
		v, err := repository.DoubleValue(*s.DoubleValue)
		if err != nil {
			return repository.Value{}, &domain.Error{Kind: domain.ErrInvalidArgument, Op: op, Message: "invalid double", Err: err}
		}
		return v, nil
	case domain.PropertyTypeLong:
		if s.LongValue == nil {
			return missing()
		}
		return repository.LongValue(*s.LongValue), nil
	case domain.PropertyTypeString:
		if s.StringValue == nil {
			return missing()
		}
		return repository.StringValue(*s.StringValue), nil
	}
	return repository.Value{}, domain.Unsupported(op, t)
}
