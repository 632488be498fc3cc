package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/policykeeper/internal/types"
)

// gRPC identifiers for the case validation service. Messages are
// google.protobuf.Struct values so no generated code is required:
// the request is {policyId, caseData} and the response is a ValidationResult.
const (
	CaseValidationServiceName = "policykeeper.cases.v1.CaseValidation"
	ValidateCaseFullMethod    = "/" + CaseValidationServiceName + "/ValidateCase"
)

// CaseValidationServer is the server API for the CaseValidation service.
type CaseValidationServer interface {
	ValidateCase(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// CaseValidationServiceDesc describes the CaseValidation service for grpc.Server.RegisterService.
var CaseValidationServiceDesc = grpc.ServiceDesc{
	ServiceName: CaseValidationServiceName,
	HandlerType: (*CaseValidationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ValidateCase", Handler: validateCaseHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "policykeeper/cases/v1/cases.proto",
}

func validateCaseHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CaseValidationServer).ValidateCase(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ValidateCaseFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CaseValidationServer).ValidateCase(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// CaseService adapts a CaseValidator to the CaseValidation gRPC service.
type CaseService struct {
	cases CaseValidator
}

// NewCaseService returns a CaseValidationServer backed by cases.
func NewCaseService(cases CaseValidator) *CaseService {
	return &CaseService{cases: cases}
}

// ValidateCase implements CaseValidationServer. Errors are returned as gRPC status errors.
func (s *CaseService) ValidateCase(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	policyID := fields["policyId"].GetStringValue()
	if policyID == "" {
		return nil, GRPCError(types.InvalidInput("policyId is required"))
	}

	caseValue, ok := fields["caseData"]
	if !ok || caseValue.GetStructValue() == nil {
		return nil, GRPCError(types.InvalidInput("caseData must be an object"))
	}
	data, err := types.NewCaseData(caseValue.GetStructValue().AsMap())
	if err != nil {
		return nil, GRPCError(err)
	}

	result, err := s.cases.ValidateCase(ctx, policyID, data)
	if err != nil {
		return nil, GRPCError(err)
	}
	return resultStruct(result)
}

func resultStruct(result types.ValidationResult) (*structpb.Struct, error) {
	results := make([]any, 0, len(result.Results))
	for _, r := range result.Results {
		results = append(results, map[string]any{
			"ruleId":  r.RuleID,
			"status":  string(r.Status),
			"message": r.Message,
		})
	}
	out, err := structpb.NewStruct(map[string]any{
		"status":  string(result.Status),
		"results": results,
	})
	if err != nil {
		return nil, GRPCError(err)
	}
	return out, nil
}
