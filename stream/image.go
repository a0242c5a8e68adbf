package stream

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/rookery/record"
	"github.com/jacentio/rookery/store"
)

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// ImageRecord converts a DynamoDB stream image into a Record. The
// composite key attribute is dropped.
func ImageRecord(image map[string]events.DynamoDBAttributeValue) record.Record {
	r := make(record.Record, len(image))
	for k, v := range image {
		if k == store.KeyAttr {
			continue
		}
		r[k] = attrValue(v)
	}
	return r
}

func attrValue(v events.DynamoDBAttributeValue) record.Value {
	switch v.DataType() {
	case events.DataTypeString:
		return record.String(v.String())
	case events.DataTypeNumber:
		return numberValue(v.Number())
	case events.DataTypeBoolean:
		return record.Bool(v.Boolean())
	case events.DataTypeBinary:
		return record.String(base64.StdEncoding.EncodeToString(v.Binary()))
	case events.DataTypeStringSet:
		return record.Strings(v.StringSet()...)
	case events.DataTypeNumberSet:
		items := make([]record.Value, 0, len(v.NumberSet()))
		for _, n := range v.NumberSet() {
			items = append(items, numberValue(n))
		}
		return record.List(items...)
	case events.DataTypeBinarySet:
		items := make([]record.Value, 0, len(v.BinarySet()))
		for _, b := range v.BinarySet() {
			items = append(items, record.String(base64.StdEncoding.EncodeToString(b)))
		}
		return record.List(items...)
	case events.DataTypeList:
		items := make([]record.Value, 0, len(v.List()))
		for _, item := range v.List() {
			items = append(items, attrValue(item))
		}
		return record.List(items...)
	case events.DataTypeMap:
		entries := make(map[string]record.Value, len(v.Map()))
		for k, item := range v.Map() {
			entries[k] = attrValue(item)
		}
		return record.Map(entries)
	}
	return record.Null()
}

func numberValue(n string) record.Value {
	if !strings.ContainsAny(n, ".eE") {
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return record.Int(i)
		}
	}
	f, err := strconv.ParseFloat(n, 64)
	if err != nil {
		return record.String(n)
	}
	return record.Float(f)
}

// tableFromARN returns the table name of a stream event source ARN
// (arn:aws:dynamodb:region:account:table/NAME/stream/LABEL).
func tableFromARN(arn string) string {
	_, rest, ok := strings.Cut(arn, ":table/")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, "/")
	return name
}
