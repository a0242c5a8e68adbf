package store

import (
	"encoding/base64"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/rookery/record"
)

// toAttributeValue converts a record value into its DynamoDB representation.
func toAttributeValue(v record.Value) types.AttributeValue {
	switch v.Kind() {
	case record.KindString:
		s, _ := v.Str()
		return &types.AttributeValueMemberS{Value: s}
	case record.KindInt:
		i, _ := v.IntValue()
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(i, 10)}
	case record.KindFloat:
		f, _ := v.FloatValue()
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(f, 'g', -1, 64)}
	case record.KindBool:
		b, _ := v.BoolValue()
		return &types.AttributeValueMemberBOOL{Value: b}
	case record.KindList:
		items := v.Items()
		list := make([]types.AttributeValue, len(items))
		for i, item := range items {
			list[i] = toAttributeValue(item)
		}
		return &types.AttributeValueMemberL{Value: list}
	case record.KindMap:
		entries := v.Entries()
		m := make(map[string]types.AttributeValue, len(entries))
		for k, item := range entries {
			m[k] = toAttributeValue(item)
		}
		return &types.AttributeValueMemberM{Value: m}
	}
	return &types.AttributeValueMemberNULL{Value: true}
}

// fromAttributeValue converts a DynamoDB attribute into a record value.
// Binary attributes are exposed as base64 strings.
func fromAttributeValue(av types.AttributeValue) record.Value {
	switch t := av.(type) {
	case *types.AttributeValueMemberS:
		return record.String(t.Value)
	case *types.AttributeValueMemberN:
		return parseNumber(t.Value)
	case *types.AttributeValueMemberBOOL:
		return record.Bool(t.Value)
	case *types.AttributeValueMemberB:
		return record.String(base64.StdEncoding.EncodeToString(t.Value))
	case *types.AttributeValueMemberSS:
		return record.Strings(t.Value...)
	case *types.AttributeValueMemberNS:
		list := make([]record.Value, len(t.Value))
		for i, n := range t.Value {
			list[i] = parseNumber(n)
		}
		return record.List(list...)
	case *types.AttributeValueMemberBS:
		list := make([]record.Value, len(t.Value))
		for i, b := range t.Value {
			list[i] = record.String(base64.StdEncoding.EncodeToString(b))
		}
		return record.List(list...)
	case *types.AttributeValueMemberL:
		list := make([]record.Value, len(t.Value))
		for i, item := range t.Value {
			list[i] = fromAttributeValue(item)
		}
		return record.List(list...)
	case *types.AttributeValueMemberM:
		m := make(map[string]record.Value, len(t.Value))
		for k, item := range t.Value {
			m[k] = fromAttributeValue(item)
		}
		return record.Map(m)
	}
	return record.Null()
}

func parseNumber(n string) record.Value {
	if i, err := strconv.ParseInt(n, 10, 64); err == nil {
		return record.Int(i)
	}
	if f, err := strconv.ParseFloat(n, 64); err == nil {
		return record.Float(f)
	}
	return record.String(n)
}

// toItem converts a record into a DynamoDB item under the given key.
func toItem(r record.Record, key string) map[string]types.AttributeValue {
	item := make(map[string]types.AttributeValue, len(r)+1)
	for k, v := range r {
		item[k] = toAttributeValue(v)
	}
	item[KeyAttr] = &types.AttributeValueMemberS{Value: key}
	return item
}

// fromItem converts a DynamoDB item into a record, dropping the key attribute.
func fromItem(item map[string]types.AttributeValue) record.Record {
	r := make(record.Record, len(item))
	for k, av := range item {
		if k == KeyAttr {
			continue
		}
		r[k] = fromAttributeValue(av)
	}
	return r
}
