package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/vyperpp/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// optionalValue evaluates an optional attribute. unset is true when the
// attribute was left out of its block, which gohcl represents as a static null.
func optionalValue(expr hcl.Expression) (val cty.Value, unset bool, err error) {
	if expr == nil {
		return cty.NilVal, true, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, false, diags
	}
	return val, val.IsNull(), nil
}

// decodeUint converts a whole, non-negative number expression to uint64.
// set is false when the attribute is absent.
func decodeUint(ctx context.Context, expr hcl.Expression) (v uint64, set bool, err error) {
	val, unset, err := optionalValue(expr)
	if err != nil || unset {
		return 0, false, err
	}

	num, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, false, fmt.Errorf("cannot convert %s to number: %w", val.Type().FriendlyName(), err)
	}
	if !val.Type().Equals(cty.Number) {
		ctxlog.FromContext(ctx).Debug("Implicitly converted value type.", "from", val.Type().FriendlyName(), "to", "number")
	}
	if num.AsBigFloat().Sign() < 0 {
		return 0, false, fmt.Errorf("must not be negative")
	}
	if !num.AsBigFloat().IsInt() {
		return 0, false, fmt.Errorf("must be a whole number")
	}
	if err := gocty.FromCtyValue(num, &v); err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// decodeDefines converts an object or map of primitive values to macro
// definitions. Numbers keep their decimal form and booleans become 1 or 0 so
// they can be tested with #if.
func decodeDefines(ctx context.Context, expr hcl.Expression) (map[string]string, error) {
	val, unset, err := optionalValue(expr)
	if err != nil {
		return nil, err
	}
	defines := make(map[string]string)
	if unset {
		return defines, nil
	}

	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("must be an object, got %s", ty.FriendlyName())
	}

	logger := ctxlog.FromContext(ctx)
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		name := k.AsString()

		if v.IsNull() {
			return nil, fmt.Errorf("define %q is null", name)
		}
		if !v.Type().IsPrimitiveType() {
			return nil, fmt.Errorf("define %q must be a string, number or bool, got %s", name, v.Type().FriendlyName())
		}

		var text string
		if v.Type().Equals(cty.Bool) {
			text = "0"
			if v.True() {
				text = "1"
			}
		} else {
			s, err := convert.Convert(v, cty.String)
			if err != nil {
				return nil, fmt.Errorf("define %q: %w", name, err)
			}
			text = s.AsString()
		}
		logger.Debug("Decoded preprocessor define.", "name", name, "value", text)
		defines[name] = text
	}
	return defines, nil
}
