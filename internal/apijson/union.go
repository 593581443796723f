// Package apijson decodes the discriminated unions of the API schema. Plain
// records decode through encoding/json; a union registers its variants once and
// delegates to [UnmarshalUnion] from its UnmarshalJSON method.
package apijson

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/tidwall/gjson"
)

// UnionVariant maps one discriminator value onto a concrete Go type.
type UnionVariant struct {
	TypeFilter         gjson.Type
	DiscriminatorValue string
	Type               reflect.Type
}

type unionEntry struct {
	discriminator string
	variants      map[string]UnionVariant
	fallback      reflect.Type
}

var (
	registryMu sync.RWMutex
	registry   = map[reflect.Type]*unionEntry{}
)

// RegisterUnion records the variants of the union interface iface. Every
// variant type must implement iface.
func RegisterUnion(iface reflect.Type, discriminator string, variants ...UnionVariant) {
	entry := &unionEntry{discriminator: discriminator, variants: map[string]UnionVariant{}}
	for _, v := range variants {
		if !v.Type.Implements(iface) && !reflect.PointerTo(v.Type).Implements(iface) {
			panic(fmt.Sprintf("apijson: %s does not implement %s", v.Type, iface))
		}
		entry.variants[v.DiscriminatorValue] = v
	}
	registryMu.Lock()
	registry[iface] = entry
	registryMu.Unlock()
}

// RegisterFallback sets the type decoded when the discriminator is missing or
// holds a value the registry does not know.
func RegisterFallback(iface reflect.Type, fallback reflect.Type) {
	registryMu.Lock()
	defer registryMu.Unlock()
	entry, ok := registry[iface]
	if !ok {
		panic(fmt.Sprintf("apijson: union %s is not registered", iface))
	}
	entry.fallback = fallback
}

// Discriminator returns the discriminator value of data for the union iface.
func Discriminator(iface reflect.Type, data []byte) string {
	registryMu.RLock()
	entry, ok := registry[iface]
	registryMu.RUnlock()
	if !ok {
		return ""
	}
	return gjson.GetBytes(data, entry.discriminator).String()
}

// UnmarshalUnion decodes data into a fresh value of the variant selected by the
// discriminator and returns it as the union interface value.
func UnmarshalUnion(iface reflect.Type, data []byte) (any, error) {
	registryMu.RLock()
	entry, ok := registry[iface]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("apijson: union %s is not registered", iface)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("apijson: invalid JSON for %s", iface)
	}

	disc := gjson.GetBytes(data, entry.discriminator)
	target := entry.fallback
	if variant, ok := entry.variants[disc.String()]; ok && disc.Exists() {
		if variant.TypeFilter != 0 && gjson.ParseBytes(data).Type != variant.TypeFilter {
			return nil, fmt.Errorf("apijson: %s variant %q must be %s", iface, disc.String(), variant.TypeFilter)
		}
		target = variant.Type
	}
	if target == nil {
		return nil, fmt.Errorf("apijson: unknown %s %q for %s", entry.discriminator, disc.String(), iface)
	}

	ptr := reflect.New(target)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, err
	}
	if ptr.Elem().Type().Implements(iface) {
		return ptr.Elem().Interface(), nil
	}
	return ptr.Interface(), nil
}
