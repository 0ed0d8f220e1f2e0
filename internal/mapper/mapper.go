package mapper

import (
	"time"

	"github.com/straye-as/crm-api/internal/domain"
)

const (
	timestampLayout = "2006-01-02T15:04:05Z"
	dateLayout      = "2006-01-02"
)

// ToAddressDTO converts Address to AddressDTO
func ToAddressDTO(address domain.Address) domain.AddressDTO {
	return domain.AddressDTO{
		Street:     address.Street,
		City:       address.City,
		State:      address.State,
		PostalCode: address.PostalCode,
		Country:    address.Country,
	}
}

// FromAddressDTO converts AddressDTO to Address
func FromAddressDTO(dto *domain.AddressDTO) domain.Address {
	if dto == nil {
		return domain.Address{}
	}
	return domain.Address{
		Street:     dto.Street,
		City:       dto.City,
		State:      dto.State,
		PostalCode: dto.PostalCode,
		Country:    dto.Country,
	}
}

// ToAccountDTO converts Account to AccountDTO
func ToAccountDTO(account *domain.Account) domain.AccountDTO {
	return domain.AccountDTO{
		ID:              account.ID,
		Name:            account.Name,
		Owner:           account.Owner,
		Type:            account.Type,
		Website:         account.Website,
		Phone:           account.Phone,
		Description:     account.Description,
		ParentAccountID: account.ParentAccountID,
		Billing:         ToAddressDTO(account.Billing),
		Shipping:        ToAddressDTO(account.Shipping),
		CreatedAt:       account.CreatedAt.Format(timestampLayout),
		UpdatedAt:       account.UpdatedAt.Format(timestampLayout),
	}
}

// ToContactDTO converts Contact to ContactDTO
func ToContactDTO(contact *domain.Contact) domain.ContactDTO {
	dto := domain.ContactDTO{
		ID:          contact.ID,
		Salutation:  contact.Salutation,
		FirstName:   contact.FirstName,
		LastName:    contact.LastName,
		FullName:    contact.FullName(),
		AccountID:   contact.AccountID,
		Title:       contact.Title,
		Email:       contact.Email,
		Phone:       contact.Phone,
		Mobile:      contact.Mobile,
		ReportsToID: contact.ReportsToID,
		Owner:       contact.Owner,
		Mailing:     ToAddressDTO(contact.Mailing),
		CreatedAt:   contact.CreatedAt.Format(timestampLayout),
		UpdatedAt:   contact.UpdatedAt.Format(timestampLayout),
	}
	if contact.Account != nil {
		dto.AccountName = contact.Account.Name
	}
	return dto
}

// ToOpportunityDTO converts Opportunity to OpportunityDTO
func ToOpportunityDTO(opp *domain.Opportunity) domain.OpportunityDTO {
	dto := domain.OpportunityDTO{
		ID:               opp.ID,
		Name:             opp.Name,
		AccountID:        opp.AccountID,
		Stage:            opp.Stage,
		CloseDate:        opp.CloseDate.Format(dateLayout),
		Amount:           opp.Amount,
		Probability:      opp.Probability,
		ForecastCategory: opp.ForecastCategory,
		NextStep:         opp.NextStep,
		Description:      opp.Description,
		Owner:            opp.Owner,
		CreatedAt:        opp.CreatedAt.Format(timestampLayout),
		UpdatedAt:        opp.UpdatedAt.Format(timestampLayout),
	}
	if opp.Account != nil {
		dto.AccountName = opp.Account.Name
	}
	return dto
}

// ToLeadDTO converts Lead to LeadDTO
func ToLeadDTO(lead *domain.Lead) domain.LeadDTO {
	dto := domain.LeadDTO{
		ID:                     lead.ID,
		Salutation:             lead.Salutation,
		FirstName:              lead.FirstName,
		LastName:               lead.LastName,
		FullName:               lead.FullName(),
		Company:                lead.Company,
		Title:                  lead.Title,
		Email:                  lead.Email,
		Phone:                  lead.Phone,
		Status:                 lead.Status,
		Owner:                  lead.Owner,
		Description:            lead.Description,
		IsConverted:            lead.IsConverted(),
		ConvertedStatus:        lead.ConvertedStatus,
		ConvertedAccountID:     lead.ConvertedAccountID,
		ConvertedContactID:     lead.ConvertedContactID,
		ConvertedOpportunityID: lead.ConvertedOpportunityID,
		CreatedAt:              lead.CreatedAt.Format(timestampLayout),
		UpdatedAt:              lead.UpdatedAt.Format(timestampLayout),
	}
	if lead.ConvertedAt != nil {
		dto.ConvertedAt = lead.ConvertedAt.Format(timestampLayout)
	}
	return dto
}

// ToActivityDTO converts Activity to ActivityDTO
func ToActivityDTO(activity *domain.Activity) domain.ActivityDTO {
	return domain.ActivityDTO{
		ID:          activity.ID,
		TargetType:  activity.TargetType,
		TargetID:    activity.TargetID,
		Title:       activity.Title,
		Body:        activity.Body,
		OccurredAt:  activity.OccurredAt.Format(timestampLayout),
		CreatorName: activity.CreatorName,
		CreatedAt:   activity.CreatedAt.Format(timestampLayout),
	}
}

// ParseDate parses a YYYY-MM-DD date in UTC
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, value, time.UTC)
}
