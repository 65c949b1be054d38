package normalize

// field identifies one canonical attribute resolved from raw records.
type field int

const (
	fID field = iota
	fMLS
	fPrice
	fStreetNumber
	fStreetName
	fStreetSuffix
	fUnparsedAddress
	fCity
	fState
	fZip
	fBedrooms
	fBathrooms
	fHalfBaths
	fSqft
	fLotAcres
	fLotSqft
	fYearBuilt
	fStories
	fPropertyType
	fStatus
	fLat
	fLng
	fListDate
	fRemarks
	fGarage
	fPool
	fWaterfront
	fFireplace
	fAgentID
	fAgentName
	fSoldPrice
	fSoldDate
	fImages
)

// aliases lists, per field, the raw keys to try in order. Partner
// PascalCase comes first, then legacy UPPER_SNAKE, then mock camelCase.
// A dotted key reads a nested map.
var aliases = map[field][]string{
	fID:              {"listing_key", "ListingKey", "ListingId", "LIST_NO", "ListingID", "listingID", "mlsNumber", "id"},
	fMLS:             {"ListingId", "LIST_NO", "ListingID", "mlsNumber", "listingID"},
	fPrice:           {"ListPrice", "LIST_PRICE", "listPrice", "price"},
	fStreetNumber:    {"StreetNumber", "STREET_NO", "streetNumber"},
	fStreetName:      {"StreetName", "STREET_NAME", "streetName"},
	fStreetSuffix:    {"StreetSuffix", "STREET_SUFFIX"},
	fUnparsedAddress: {"UnparsedAddress", "ADDRESS", "address"},
	fCity:            {"City", "CITY", "TOWN", "cityName", "city"},
	fState:           {"StateOrProvince", "STATE", "state"},
	fZip:             {"PostalCode", "ZIP_CODE", "zipcode", "zipCode"},
	fBedrooms:        {"BedroomsTotal", "NO_BEDROOMS", "bedrooms"},
	fBathrooms:       {"BathroomsTotalInteger", "BathroomsFull", "NO_FULL_BATHS", "totalBaths", "bathrooms"},
	fHalfBaths:       {"BathroomsHalf", "NO_HALF_BATHS", "halfBaths", "halfBathrooms"},
	fSqft:            {"LivingArea", "AboveGradeFinishedArea", "SQUARE_FEET", "sqFt", "sqft"},
	fLotAcres:        {"LotSizeAcres", "ACRE", "acres", "lotSize"},
	fLotSqft:         {"LotSizeSquareFeet", "LOT_SIZE"},
	fYearBuilt:       {"YearBuilt", "YEAR_BUILT", "yearBuilt"},
	fStories:         {"Stories", "StoriesTotal", "STORIES", "stories"},
	fPropertyType:    {"PropertySubType", "PropertyType", "PROP_TYPE", "PROPERTY_TYPE", "propType", "propertyType"},
	fStatus:          {"StandardStatus", "MlsStatus", "STATUS", "propStatus", "status"},
	fLat:             {"Latitude", "LATITUDE", "latitude", "lat"},
	fLng:             {"Longitude", "LONGITUDE", "longitude", "lng"},
	fListDate:        {"ListingContractDate", "OnMarketDate", "LIST_DATE", "listingDate", "listDate"},
	fRemarks:         {"PublicRemarks", "REMARKS", "remarksConcat", "detailedRemarks", "description"},
	fGarage:          {"GarageSpaces", "GARAGE_SPACES", "features.garage", "garage"},
	fPool:            {"PoolPrivateYN", "POOL", "features.pool", "pool"},
	fWaterfront:      {"WaterfrontYN", "WATERFRONT", "features.waterfront", "waterfront"},
	fFireplace:       {"FireplacesTotal", "FIREPLACES", "features.fireplace", "fireplaces", "fireplace"},
	fAgentID:         {"ListAgentMlsId", "ListAgentKey", "LIST_AGENT_ID", "listingAgentId", "agentId"},
	fAgentName:       {"ListAgentFullName", "LIST_AGENT_NAME", "listingAgent", "agentName"},
	fSoldPrice:       {"ClosePrice", "SALE_PRICE", "SOLD_PRICE", "soldPrice"},
	fSoldDate:        {"CloseDate", "SETTLED_DATE", "soldDate"},
	fImages:          {"Media", "PHOTOS", "images", "photos", "featuredImage"},
}

// nestedKeys are the sub-records searched after the top level, in order.
var nestedKeys = []string{"data", "_raw_data"}
