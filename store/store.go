package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/rookery/record"
)

// API is the subset of the DynamoDB client used by Store.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Store is a Connector backed by DynamoDB. Each hierarchy level lives in
// its own table keyed by the composite "pk" attribute.
type Store struct {
	client   API
	config   Config
	registry *Registry
}

var _ Connector = (*Store)(nil)

// New creates a new Store with the default hierarchy registry.
func New(client API, config Config) *Store {
	config.validate()
	return &Store{
		client:   client,
		config:   config,
		registry: DefaultRegistry(config),
	}
}

// NewWithRegistry creates a new Store using a custom hierarchy registry.
func NewWithRegistry(client API, config Config, registry *Registry) *Store {
	config.validate()
	return &Store{
		client:   client,
		config:   config,
		registry: registry,
	}
}

// Registry returns the hierarchy registry.
func (s *Store) Registry() *Registry {
	return s.registry
}

func (s *Store) level(table string) (Level, error) {
	l, ok := s.registry.ByTable(table)
	if !ok {
		return Level{}, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return l, nil
}

// Fetch returns the records of table matching filters. A complete key is
// served with GetItem; anything else scans the table.
func (s *Store) Fetch(ctx context.Context, table string, filters Filters) ([]record.Record, error) {
	l, err := s.level(table)
	if err != nil {
		return nil, opErr("fetch", table, err)
	}
	filters = filters.Compact()

	if l.HasFullKey(filters) {
		r, err := s.get(ctx, l, filters)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, opErr("fetch", table, err)
		}
		return []record.Record{r}, nil
	}

	records, err := s.scan(ctx, l, filters)
	if err != nil {
		return nil, opErr("fetch", table, err)
	}
	return records, nil
}

// FetchOne returns the single record of table matching filters.
func (s *Store) FetchOne(ctx context.Context, table string, filters Filters) (record.Record, error) {
	l, err := s.level(table)
	if err != nil {
		return nil, opErr("fetch_one", table, err)
	}
	filters = filters.Compact()

	if l.HasFullKey(filters) {
		r, err := s.get(ctx, l, filters)
		return r, opErr("fetch_one", table, err)
	}

	records, err := s.scan(ctx, l, filters)
	if err != nil {
		return nil, opErr("fetch_one", table, err)
	}
	switch len(records) {
	case 0:
		return nil, opErr("fetch_one", table, ErrNotFound)
	case 1:
		return records[0], nil
	}
	return nil, opErr("fetch_one", table, ErrMultipleRecords)
}

// get retrieves a record by its complete key, checking any extra filters.
func (s *Store) get(ctx context.Context, l Level, filters Filters) (record.Record, error) {
	key, err := l.Key(filters)
	if err != nil {
		return nil, err
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(l.Table),
		Key: map[string]types.AttributeValue{
			KeyAttr: &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	r := fromItem(result.Item)
	if !filters.Matches(r) {
		return nil, ErrNotFound
	}
	return r, nil
}

// scan reads every record of the level matching filters. With more than
// one configured segment the table is scanned in parallel and the results
// are concatenated in segment order.
func (s *Store) scan(ctx context.Context, l Level, filters Filters) ([]record.Record, error) {
	input := &dynamodb.ScanInput{
		TableName:      aws.String(l.Table),
		ConsistentRead: aws.Bool(true),
	}
	if len(filters) > 0 {
		expr, names, values, err := equalityFilter(filters)
		if err != nil {
			return nil, err
		}
		input.FilterExpression = aws.String(expr)
		input.ExpressionAttributeNames = names
		input.ExpressionAttributeValues = values
	}

	segments := s.config.ScanSegments
	if segments <= 1 {
		return s.scanSegment(ctx, input)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([][]record.Record, segments)
	errs := make(chan error, segments)
	var wg sync.WaitGroup

	for seg := 0; seg < segments; seg++ {
		wg.Add(1)
		go func(seg int) {
			defer wg.Done()

			segInput := *input
			segInput.Segment = aws.Int32(int32(seg))
			segInput.TotalSegments = aws.Int32(int32(segments))

			records, err := s.scanSegment(ctx, &segInput)
			if err != nil {
				errs <- fmt.Errorf("segment %d: %w", seg, err)
				cancel()
				return
			}
			results[seg] = records
		}(seg)
	}

	wg.Wait()
	close(errs)

	// Prefer the error that triggered cancellation over the ones it caused
	var firstErr error
	for err := range errs {
		if firstErr == nil || errors.Is(firstErr, context.Canceled) {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	var all []record.Record
	for _, records := range results {
		all = append(all, records...)
	}
	return all, nil
}

func (s *Store) scanSegment(ctx context.Context, input *dynamodb.ScanInput) ([]record.Record, error) {
	var records []record.Record
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			records = append(records, fromItem(item))
		}
	}
	return records, nil
}

// Insert stores a new record, failing if the key is already taken.
func (s *Store) Insert(ctx context.Context, table string, fields record.Record) error {
	l, err := s.level(table)
	if err != nil {
		return opErr("insert", table, err)
	}
	key, err := l.Key(l.KeyOf(fields))
	if err != nil {
		return opErr("insert", table, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(l.Table),
		Item:                     toItem(fields, key),
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": KeyAttr},
	})
	if isConditionFailure(err) {
		return opErr("insert", table, ErrAlreadyExists)
	}
	return opErr("insert", table, err)
}

// Update overwrites fields of an existing record. Key attributes are never rewritten.
func (s *Store) Update(ctx context.Context, table string, filters Filters, fields record.Record) error {
	l, err := s.level(table)
	if err != nil {
		return opErr("update", table, err)
	}
	key, err := l.Key(filters)
	if err != nil {
		return opErr("update", table, err)
	}

	clauses, names, values := setClauses(fields, l.KeyAttrs)
	if len(clauses) == 0 {
		return nil
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(l.Table),
		Key:                       map[string]types.AttributeValue{KeyAttr: &types.AttributeValueMemberS{Value: key}},
		UpdateExpression:          aws.String("SET " + strings.Join(clauses, ", ")),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  mergeExprNames(names, map[string]string{"#pk": KeyAttr}),
		ExpressionAttributeValues: values,
	})
	if isConditionFailure(err) {
		return opErr("update", table, ErrNotFound)
	}
	return opErr("update", table, err)
}

// MergeMap sets entries inside the map attribute field. When the attribute
// is missing or not a map it is replaced by entries in a second
// conditional write.
func (s *Store) MergeMap(ctx context.Context, table string, filters Filters, field string, entries map[string]record.Value, fields record.Record) error {
	l, err := s.level(table)
	if err != nil {
		return opErr("merge_map", table, err)
	}
	key, err := l.Key(filters)
	if err != nil {
		return opErr("merge_map", table, err)
	}
	itemKey := map[string]types.AttributeValue{KeyAttr: &types.AttributeValueMemberS{Value: key}}

	skip := append(append([]string{}, l.KeyAttrs...), field)
	fieldClauses, fieldNames, fieldValues := setClauses(fields, skip)
	baseNames := map[string]string{"#pk": KeyAttr, "#m": field}
	mapType := map[string]types.AttributeValue{":mapType": &types.AttributeValueMemberS{Value: "M"}}

	// 1. Merge into the existing map
	entryClauses, entryNames, entryValues := mapEntryClauses("#m", entries)
	clauses := append(entryClauses, fieldClauses...)
	if len(clauses) == 0 {
		return nil
	}
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(l.Table),
		Key:                       itemKey,
		UpdateExpression:          aws.String("SET " + strings.Join(clauses, ", ")),
		ConditionExpression:       aws.String("attribute_exists(#pk) AND attribute_type(#m, :mapType)"),
		ExpressionAttributeNames:  mergeExprNames(baseNames, entryNames, fieldNames),
		ExpressionAttributeValues: mergeExprValues(entryValues, fieldValues, mapType),
	})
	if !isConditionFailure(err) {
		return opErr("merge_map", table, err)
	}

	// 2. The map is missing or holds another type: replace it
	clauses = append([]string{"#m = :m"}, fieldClauses...)
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(l.Table),
		Key:                      itemKey,
		UpdateExpression:         aws.String("SET " + strings.Join(clauses, ", ")),
		ConditionExpression:      aws.String("attribute_exists(#pk) AND NOT attribute_type(#m, :mapType)"),
		ExpressionAttributeNames: mergeExprNames(baseNames, fieldNames),
		ExpressionAttributeValues: mergeExprValues(fieldValues, map[string]types.AttributeValue{
			":m": toAttributeValue(record.Map(entries)),
		}, mapType),
	})
	if isConditionFailure(err) {
		return opErr("merge_map", table, ErrNotFound)
	}
	return opErr("merge_map", table, err)
}

func isConditionFailure(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}
