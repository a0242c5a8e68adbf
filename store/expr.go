package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/rookery/record"
)

// KeyAttr is the composite partition key attribute of every table.
const KeyAttr = "pk"

// equalityFilter returns a filter expression requiring every filter
// attribute to equal its value. Attributes are emitted in sorted order.
func equalityFilter(filters Filters) (string, map[string]string, map[string]types.AttributeValue, error) {
	names := make(map[string]string)
	values := make(map[string]types.AttributeValue)
	var clauses []string

	for i, attr := range sortedKeys(filters) {
		av, err := attributevalue.Marshal(filters[attr])
		if err != nil {
			return "", nil, nil, fmt.Errorf("marshal filter %q: %w", attr, err)
		}
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":f%d", i)
		names[nameKey] = attr
		values[valueKey] = av
		clauses = append(clauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}
	return strings.Join(clauses, " AND "), names, values, nil
}

// setClauses builds SET clauses for fields, skipping key attributes.
func setClauses(fields record.Record, skip []string) ([]string, map[string]string, map[string]types.AttributeValue) {
	names := make(map[string]string)
	values := make(map[string]types.AttributeValue)
	var clauses []string

	i := 0
	for _, k := range fields.Fields() {
		if k == KeyAttr || contains(skip, k) {
			continue
		}
		nameKey := fmt.Sprintf("#attr%d", i)
		valueKey := fmt.Sprintf(":val%d", i)
		names[nameKey] = k
		values[valueKey] = toAttributeValue(fields[k])
		clauses = append(clauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}
	return clauses, names, values
}

// mapEntryClauses builds SET clauses assigning entries inside the map
// attribute referenced by mapName.
func mapEntryClauses(mapName string, entries map[string]record.Value) ([]string, map[string]string, map[string]types.AttributeValue) {
	names := make(map[string]string)
	values := make(map[string]types.AttributeValue)
	var clauses []string

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, k := range keys {
		nameKey := fmt.Sprintf("#entry%d", i)
		valueKey := fmt.Sprintf(":entry%d", i)
		names[nameKey] = k
		values[valueKey] = toAttributeValue(entries[k])
		clauses = append(clauses, fmt.Sprintf("%s.%s = %s", mapName, nameKey, valueKey))
	}
	return clauses, names, values
}

// mergeExprNames merges multiple expression attribute name maps.
func mergeExprNames(maps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}

// mergeExprValues merges multiple expression attribute value maps.
func mergeExprValues(maps ...map[string]types.AttributeValue) map[string]types.AttributeValue {
	result := make(map[string]types.AttributeValue)
	for _, m := range maps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}

func sortedKeys(f Filters) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
