package dynamo

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

const (
	reasonConditionalCheckFailed = "ConditionalCheckFailed"
	codeResourceInUse            = "ResourceInUseException"
)

// conditionFailedAt reports whether a cancelled transaction failed because of
// the condition on the item at index.
func conditionFailedAt(err error, index int) bool {
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) {
		return false
	}
	if index < 0 || index >= len(canceled.CancellationReasons) {
		return false
	}
	return aws.ToString(canceled.CancellationReasons[index].Code) == reasonConditionalCheckFailed
}

// hasErrorCode matches the API error code anywhere in err's chain.
func hasErrorCode(err error, code string) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == code
}
